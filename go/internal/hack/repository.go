package hack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/halcyon-larp/gridlink/go/internal/engine"
	"github.com/halcyon-larp/gridlink/go/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements hack session and candidate data access on Postgres.
// Sessions are keyed by owner; the upsert enforces the one-live-session-per-
// owner invariant.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new hack repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetSession retrieves the live session for an owner.
func (r *Repository) GetSession(ctx context.Context, owner uuid.UUID) (*models.HackSession, error) {
	var (
		sess       models.HackSession
		candidates []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT owner_id, station_id, game_users, tries_left, created_at
		   FROM hack_sessions WHERE owner_id = $1`, owner,
	).Scan(&sess.OwnerID, &sess.StationID, &candidates, &sess.TriesLeft, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("session for owner %s: %w", owner, engine.ErrNotFound)
		}
		return nil, fmt.Errorf("get session for owner %s: %v: %w", owner, err, engine.ErrStorage)
	}
	if err := json.Unmarshal(candidates, &sess.Candidates); err != nil {
		return nil, fmt.Errorf("decode session candidates for owner %s: %v: %w", owner, err, engine.ErrStorage)
	}
	return &sess, nil
}

// UpsertSession writes the session, replacing any live session the owner
// already has.
func (r *Repository) UpsertSession(ctx context.Context, session *models.HackSession) error {
	candidates, err := json.Marshal(session.Candidates)
	if err != nil {
		return fmt.Errorf("encode session candidates: %v: %w", err, engine.ErrStorage)
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO hack_sessions (owner_id, station_id, game_users, tries_left, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (owner_id) DO UPDATE SET
		   station_id = EXCLUDED.station_id,
		   game_users = EXCLUDED.game_users,
		   tries_left = EXCLUDED.tries_left,
		   created_at = EXCLUDED.created_at`,
		session.OwnerID, session.StationID, candidates, session.TriesLeft, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session for owner %s: %v: %w", session.OwnerID, err, engine.ErrStorage)
	}
	return nil
}

// DeleteSession removes the owner's live session. Deleting a session that is
// already gone is not an error.
func (r *Repository) DeleteSession(ctx context.Context, owner uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM hack_sessions WHERE owner_id = $1`, owner,
	)
	if err != nil {
		return fmt.Errorf("delete session for owner %s: %v: %w", owner, err, engine.ErrStorage)
	}
	return nil
}

// GetCandidates returns the game users attached to a station.
func (r *Repository) GetCandidates(ctx context.Context, stationID string) ([]models.GameUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, station_id, identity, passwords FROM game_users WHERE station_id = $1`,
		stationID,
	)
	if err != nil {
		return nil, fmt.Errorf("list game users for station %s: %v: %w", stationID, err, engine.ErrStorage)
	}
	defer rows.Close()

	var users []models.GameUser
	for rows.Next() {
		var gu models.GameUser
		if err := rows.Scan(&gu.ID, &gu.StationID, &gu.Identity, &gu.Passwords); err != nil {
			return nil, fmt.Errorf("scan game user row: %v: %w", err, engine.ErrStorage)
		}
		users = append(users, gu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list game users for station %s: %v: %w", stationID, err, engine.ErrStorage)
	}
	return users, nil
}

// GetFillerPasswords returns the global decoy password pool.
func (r *Repository) GetFillerPasswords(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT password FROM filler_passwords`)
	if err != nil {
		return nil, fmt.Errorf("list filler passwords: %v: %w", err, engine.ErrStorage)
	}
	defer rows.Close()

	var passwords []string
	for rows.Next() {
		var pw string
		if err := rows.Scan(&pw); err != nil {
			return nil, fmt.Errorf("scan filler password row: %v: %w", err, engine.ErrStorage)
		}
		passwords = append(passwords, pw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list filler passwords: %v: %w", err, engine.ErrStorage)
	}
	return passwords, nil
}
