package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionCandidate is one game user committed to a hack session: the identity
// label, the single password picked from its list, and a positional hint into
// that password. Exactly one candidate per session is flagged correct.
type SessionCandidate struct {
	Identity  string `json:"identity"`
	Password  string `json:"password"`
	HintIndex int    `json:"hint_index"`
	HintChar  string `json:"hint_char"`
	IsCorrect bool   `json:"is_correct"`
}

// HackSession is the per-owner attempt state for one station. At most one
// live session exists per owner; creating a session for another station
// overwrites the old one.
type HackSession struct {
	OwnerID    uuid.UUID          `json:"owner_id"`
	StationID  string             `json:"station_id"`
	Candidates []SessionCandidate `json:"candidates"`
	TriesLeft  int                `json:"tries_left"`
	CreatedAt  time.Time          `json:"created_at"`
}

// Correct returns the candidate flagged as correct, or nil if the session is
// corrupt.
func (s *HackSession) Correct() *SessionCandidate {
	for i := range s.Candidates {
		if s.Candidates[i].IsCorrect {
			return &s.Candidates[i]
		}
	}
	return nil
}
