package hack

// Hint reveals one character of the correct candidate's committed password at
// a known position.
type Hint struct {
	Index int    `json:"index"`
	Char  string `json:"char"`
}

// SessionPayload is the client-visible view of a hack session: the shuffled
// decoy password list with the session passwords appended, the remaining
// tries, and the correct candidate's identity and hint. The incorrect
// candidate is never exposed.
type SessionPayload struct {
	StationID string   `json:"station_id"`
	Passwords []string `json:"passwords"`
	TriesLeft int      `json:"tries_left"`
	Identity  string   `json:"identity"`
	Hint      Hint     `json:"hint"`
}

// MatchInfo is the partial feedback returned after a wrong guess.
type MatchInfo struct {
	Amount int `json:"amount"`
}

// AttemptResult is the outcome of one guess. Matches is present only on a
// wrong guess that did not exhaust the tries budget.
type AttemptResult struct {
	Success   bool       `json:"success"`
	Boosting  bool       `json:"boosting"`
	TriesLeft int        `json:"tries_left"`
	Matches   *MatchInfo `json:"matches,omitempty"`
}
