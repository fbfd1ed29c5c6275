package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/config"
	"github.com/inkwell-books/sms-concierge/internal/infrastructure/logger"
)

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := initializeApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize application")
	}

	app.Pool.Start()

	if err := app.Server.Run(ctx); err != nil {
		log.Error().Err(err).Msg("http server stopped with error")
	}

	// Drain order: stop accepting work, let workers finish, then release
	// shared clients.
	app.Queue.Close()
	app.Pool.Stop()
	if err := app.Cache.Close(); err != nil {
		log.Warn().Err(err).Msg("close redis client")
	}

	log.Info().Msg("shutdown complete")
}

// loadEnvFiles loads optional dotenv files. Missing files are fine; real
// environments set variables directly.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}
