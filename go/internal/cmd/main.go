package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := setupDatabase(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer pool.Close()

	services, err := setupServices(config, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	defer services.Close()

	// The decay loop is the engine's only self-driven activity; player
	// actions arrive through the platform's socket layer, which embeds the
	// station and hack apps directly.
	done := make(chan error, 1)
	go func() {
		done <- services.Decay.Run(ctx)
	}()

	log.Info().
		Int("tries_budget", config.Engine.TriesBudget).
		Dur("decay_interval", config.decayInterval()).
		Msg("gridlink engine started")

	select {
	case <-ctx.Done():
	case err := <-done:
		if err != nil {
			log.Error().Err(err).Msg("decay scheduler exited")
		}
		<-ctx.Done()
	}

	log.Info().Msg("gridlink engine stopped")
}
