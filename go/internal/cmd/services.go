package main

import (
	"time"

	"github.com/halcyon-larp/gridlink/go/clients/score_client"
	"github.com/halcyon-larp/gridlink/go/internal/decay"
	"github.com/halcyon-larp/gridlink/go/internal/events"
	"github.com/halcyon-larp/gridlink/go/internal/hack"
	"github.com/halcyon-larp/gridlink/go/internal/round"
	"github.com/halcyon-larp/gridlink/go/internal/station"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Stations *station.App
	Hacks    *hack.App
	Decay    *decay.Scheduler

	publisher *events.JetStreamPublisher
}

func setupServices(config *Config, pool *pgxpool.Pool) (*Services, error) {
	// Wire up dependency injection chain:
	// Database layer → Repository layer → App layer → Scheduler

	scoreClient := score_client.NewScoreClient(score_client.Config{
		Endpoint: config.Score.Endpoint,
		APIKey:   config.Score.APIKey,
		Timeout:  time.Duration(config.Score.TimeoutSec) * time.Second,
	})

	var (
		publisher   *events.JetStreamPublisher
		stationsPub station.EventPublisher
	)
	if config.NATS.URL != "" {
		jsCfg := events.DefaultJetStreamConfig()
		jsCfg.URL = config.NATS.URL
		p, err := events.NewJetStreamPublisher(jsCfg)
		if err != nil {
			return nil, err
		}
		publisher = p
		stationsPub = p
	} else {
		log.Warn().Msg("NATS_URL not set; signal change events disabled")
	}

	stationRepo := station.NewRepository(pool)
	stations := station.NewApp(stationRepo, scoreClient, stationsPub)

	hackRepo := hack.NewRepository(pool)
	hacks := hack.NewApp(hackRepo, stations, config.Engine.TriesBudget)

	clock := clockwork.NewRealClock()
	gate := round.NewRepository(pool, clock)
	scheduler := decay.NewScheduler(stations, gate, clock, config.decayInterval())

	return &Services{
		Stations:  stations,
		Hacks:     hacks,
		Decay:     scheduler,
		publisher: publisher,
	}, nil
}

func (s *Services) Close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event publisher")
		}
	}
}
