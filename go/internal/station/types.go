package station

// AdjustResult reports the outcome of a signal adjustment. Committed flips to
// true once the new value is durably written; a score-sync failure after that
// point is returned as an error alongside the committed result, so callers
// can tell "value changed, sync failed" apart from "nothing changed".
type AdjustResult struct {
	StationID string `json:"station_id"`
	Value     int    `json:"value"`
	Committed bool   `json:"committed"`
}
