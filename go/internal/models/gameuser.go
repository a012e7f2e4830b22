package models

import "github.com/google/uuid"

// GameUser is a decoy identity attached to a station. Each one carries a
// non-empty list of candidate passwords; the session manager commits one of
// them when the game user is drawn into a hack session. Read-only from the
// engine's perspective.
type GameUser struct {
	ID        uuid.UUID `json:"id"`
	StationID string    `json:"station_id"`
	Identity  string    `json:"identity"`
	Passwords []string  `json:"passwords"`
}
