package score_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/halcyon-larp/gridlink/go/clients"
	"github.com/halcyon-larp/gridlink/go/internal/engine"
)

// Config holds the scoring service settings. Both Endpoint and APIKey are
// required; a client built without them reports every push as misconfigured
// rather than silently skipping.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// ScoreClient pushes station boost values to the external scoring service.
type ScoreClient struct {
	base       *clients.BaseClient
	configured bool
}

// NewScoreClient creates a score client from config.
func NewScoreClient(cfg Config) *ScoreClient {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return &ScoreClient{}
	}
	base := clients.NewBaseClient(cfg.Endpoint)
	base.SetHeader("X-Api-Key", cfg.APIKey)
	base.SetHeader("Content-Type", "application/json")
	if cfg.Timeout > 0 {
		base.SetTimeout(cfg.Timeout)
	}
	return &ScoreClient{base: base, configured: true}
}

type boostUpdate struct {
	StationID string `json:"stationId"`
	Boost     int    `json:"boost"`
}

// PushBoost sends the station's new signal value. Best effort: no retry, and
// every failure (including missing configuration) wraps engine.ErrExternal.
func (c *ScoreClient) PushBoost(ctx context.Context, stationID string, value int) error {
	if !c.configured {
		return fmt.Errorf("score endpoint or api key not configured: %w", engine.ErrExternal)
	}

	body, err := json.Marshal(boostUpdate{StationID: stationID, Boost: value})
	if err != nil {
		return fmt.Errorf("marshal boost update: %w", err)
	}

	if _, err := c.base.Post(ctx, "/boost", bytes.NewReader(body)); err != nil {
		return fmt.Errorf("push boost for station %s: %v: %w", stationID, err, engine.ErrExternal)
	}
	return nil
}
