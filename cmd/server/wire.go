//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/inkwell-books/sms-concierge/internal/config"
)

func initializeApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	wire.Build(
		provideDatabase,
		provideCache,
		provideVerifier,
		provideLimiter,
		provideStore,
		provideGenerator,
		provideTransport,
		provideCatalog,
		provideQueue,
		providePipeline,
		providePool,
		provideServer,
		newApplication,
	)
	return nil, nil
}
