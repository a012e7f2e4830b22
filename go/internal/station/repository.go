package station

import (
	"context"
	"errors"
	"fmt"

	"github.com/halcyon-larp/gridlink/go/internal/engine"
	"github.com/halcyon-larp/gridlink/go/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements station data access on Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new station repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetStation retrieves a station by ID.
func (r *Repository) GetStation(ctx context.Context, id string) (*models.Station, error) {
	var st models.Station
	err := r.pool.QueryRow(ctx,
		`SELECT id, signal_value, is_active FROM stations WHERE id = $1`, id,
	).Scan(&st.ID, &st.SignalValue, &st.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("station %s: %w", id, engine.ErrNotFound)
		}
		return nil, fmt.Errorf("get station %s: %v: %w", id, err, engine.ErrStorage)
	}
	return &st, nil
}

// SetSignalValue persists a new signal value for a station.
func (r *Repository) SetSignalValue(ctx context.Context, id string, value int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE stations SET signal_value = $2 WHERE id = $1`, id, value,
	)
	if err != nil {
		return fmt.Errorf("set signal value for station %s: %v: %w", id, err, engine.ErrStorage)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("station %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

// ListStations returns all stations in stable order.
func (r *Repository) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, signal_value, is_active FROM stations ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list stations: %v: %w", err, engine.ErrStorage)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.SignalValue, &st.IsActive); err != nil {
			return nil, fmt.Errorf("scan station row: %v: %w", err, engine.ErrStorage)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stations: %v: %w", err, engine.ErrStorage)
	}
	return stations, nil
}
