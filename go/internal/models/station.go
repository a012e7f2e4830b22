package models

// Station is a game-world object with a bounded signal value that players
// boost or suppress through hacking. Stations are seeded externally and never
// deleted by the engine; only signal_value is mutated here.
type Station struct {
	ID          string `json:"id"`
	SignalValue int    `json:"signal_value"`
	IsActive    bool   `json:"is_active"`
}
