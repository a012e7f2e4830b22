package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/halcyon-larp/gridlink/go/internal/dbconfig"
	"github.com/halcyon-larp/gridlink/go/internal/sqlutil"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seed mirrors the JSON snapshot produced by the game masters' prep sheet.
type Seed struct {
	Stations []struct {
		ID          string `json:"id"`
		SignalValue int    `json:"signal_value"`
		IsActive    bool   `json:"is_active"`
	} `json:"stations"`
	GameUsers []struct {
		StationID string   `json:"station_id"`
		Identity  string   `json:"identity"`
		Passwords []string `json:"passwords"`
	} `json:"game_users"`
	FillerPasswords []string `json:"filler_passwords"`
	Rounds          []struct {
		StartsAt time.Time `json:"starts_at"`
		EndsAt   time.Time `json:"ends_at"`
	} `json:"rounds"`
}

func main() {
	path := "go/internal/assets/grid.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// One transaction for the whole grid so a broken snapshot never leaves a
	// half-seeded game behind.
	err = sqlutil.Run(context.Background(), pool, func(tx pgx.Tx) error {
		ctx := context.Background()

		for _, s := range seed.Stations {
			if _, err := tx.Exec(ctx, `
                INSERT INTO stations (id, signal_value, is_active)
                VALUES ($1, $2, $3)
                ON CONFLICT (id) DO UPDATE SET
                  signal_value = EXCLUDED.signal_value,
                  is_active = EXCLUDED.is_active
            `, s.ID, s.SignalValue, s.IsActive); err != nil {
				return fmt.Errorf("seed station %s: %w", s.ID, err)
			}
		}

		for _, gu := range seed.GameUsers {
			if len(gu.Passwords) == 0 {
				return fmt.Errorf("game user %s on station %s has no passwords", gu.Identity, gu.StationID)
			}
			if _, err := tx.Exec(ctx, `
                INSERT INTO game_users (id, station_id, identity, passwords)
                VALUES ($1, $2, $3, $4)
            `, uuid.New(), gu.StationID, gu.Identity, gu.Passwords); err != nil {
				return fmt.Errorf("seed game user %s: %w", gu.Identity, err)
			}
		}

		for _, pw := range seed.FillerPasswords {
			if _, err := tx.Exec(ctx, `
                INSERT INTO filler_passwords (password) VALUES ($1)
            `, pw); err != nil {
				return fmt.Errorf("seed filler password: %w", err)
			}
		}

		for _, r := range seed.Rounds {
			if _, err := tx.Exec(ctx, `
                INSERT INTO rounds (id, starts_at, ends_at) VALUES ($1, $2, $3)
            `, uuid.New(), r.StartsAt, r.EndsAt); err != nil {
				return fmt.Errorf("seed round: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d stations, %d game users, %d filler passwords, %d rounds\n",
		len(seed.Stations), len(seed.GameUsers), len(seed.FillerPasswords), len(seed.Rounds))
}
