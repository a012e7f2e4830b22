package round

import (
	"context"
	"errors"
	"fmt"

	"github.com/halcyon-larp/gridlink/go/internal/engine"
	"github.com/halcyon-larp/gridlink/go/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Repository answers round questions from the rounds table. It satisfies Gate.
type Repository struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// NewRepository creates a new round repository.
func NewRepository(pool *pgxpool.Pool, clock clockwork.Clock) *Repository {
	return &Repository{pool: pool, clock: clock}
}

// IsRoundActive reports whether any round window contains the current time.
// A storage failure is logged and reported as no active round; skipping a
// decay tick is the safe side.
func (r *Repository) IsRoundActive(ctx context.Context) bool {
	var active bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM rounds WHERE starts_at <= $1 AND ends_at > $1)`,
		r.clock.Now().UTC(),
	).Scan(&active)
	if err != nil {
		log.Error().Err(err).Msg("round lookup failed")
		return false
	}
	return active
}

// CurrentRound returns the round whose window contains the current time.
func (r *Repository) CurrentRound(ctx context.Context) (*models.Round, error) {
	var rd models.Round
	err := r.pool.QueryRow(ctx,
		`SELECT id, starts_at, ends_at FROM rounds
		  WHERE starts_at <= $1 AND ends_at > $1
		  ORDER BY starts_at DESC LIMIT 1`,
		r.clock.Now().UTC(),
	).Scan(&rd.ID, &rd.StartsAt, &rd.EndsAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("active round: %w", engine.ErrNotFound)
		}
		return nil, fmt.Errorf("current round: %v: %w", err, engine.ErrStorage)
	}
	return &rd, nil
}
