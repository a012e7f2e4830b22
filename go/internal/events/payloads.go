package events

import "time"

// Causes recorded on a SignalChanged event.
const (
	CauseHack  = "hack"
	CauseDecay = "decay"
)

// EventTypeSignalChanged is the event type published for every committed
// signal value change.
const EventTypeSignalChanged = "SignalChanged"

// SignalChangedPayload is emitted after a station's signal value is committed,
// whether by a successful hack or by the decay loop.
type SignalChangedPayload struct {
	StationID string    `json:"station_id"`
	OldValue  int       `json:"old_value"`
	NewValue  int       `json:"new_value"`
	Cause     string    `json:"cause"`
	ChangedAt time.Time `json:"changed_at"`
}
