package round

import "context"

// Gate reports whether a timed competitive round is currently running. The
// decay loop and the hacking mini-game only matter inside a round.
type Gate interface {
	IsRoundActive(ctx context.Context) bool
}

// StaticGate always reports the same state. Useful in tests and for
// deployments that do not schedule rounds in the database.
type StaticGate bool

func (g StaticGate) IsRoundActive(ctx context.Context) bool { return bool(g) }
