package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/app"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/config"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not load configuration")
	}
	cfg.SetupLogger()

	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Fatal error: could not initialize services")
	}
	defer application.Close() // Ensure the storage is closed on exit.

	if err := application.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Graceful shutdown complete.")
}
