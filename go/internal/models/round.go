package models

import (
	"time"

	"github.com/google/uuid"
)

// Round is an externally scheduled competitive window. Signal decay and the
// hacking mini-game only matter while a round is running.
type Round struct {
	ID       uuid.UUID `json:"id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}
