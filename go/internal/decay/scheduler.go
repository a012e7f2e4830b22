package decay

import (
	"context"
	"time"

	"github.com/halcyon-larp/gridlink/go/internal/round"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// StationApp defines what the scheduler needs from the signal controller.
type StationApp interface {
	DecayTick(ctx context.Context) error
}

// Scheduler drives the background decay loop: every interval, while a round
// is active, each station's signal value is nudged one unit back toward the
// default. Player adjustments run concurrently; the signal controller's
// per-station locks keep the two from losing updates.
type Scheduler struct {
	stations StationApp
	gate     round.Gate
	clock    clockwork.Clock
	interval time.Duration
}

// NewScheduler creates a new decay scheduler. In production pass
// clockwork.NewRealClock(); tests use a fake clock.
func NewScheduler(stations StationApp, gate round.Gate, clock clockwork.Clock, interval time.Duration) *Scheduler {
	return &Scheduler{
		stations: stations,
		gate:     gate,
		clock:    clock,
		interval: interval,
	}
}

// Run ticks until ctx is cancelled. An interval of zero or less disables
// decay entirely and Run returns immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		log.Info().Msg("signal decay disabled")
		return nil
	}

	log.Info().Dur("interval", s.interval).Msg("signal decay loop started")

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("signal decay loop stopped")
			return nil
		case <-ticker.Chan():
			if !s.gate.IsRoundActive(ctx) {
				log.Debug().Msg("no active round; skipping decay tick")
				continue
			}
			if err := s.stations.DecayTick(ctx); err != nil {
				log.Error().Err(err).Msg("decay tick failed")
			}
		}
	}
}
