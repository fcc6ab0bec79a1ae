// Package app builds the SafeRice services from configuration and runs the
// HTTP server until the process is told to stop.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/analysis"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/auth"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/config"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/database"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/geminiservice"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/server"
	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/utility"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout is how long in-flight requests get to finish.
const ShutdownTimeout = 5 * time.Second

// App holds the long-lived services of one process.
type App struct {
	Config   *config.Config
	Storage  database.Service
	Auth     *auth.Store
	Analyzer *geminiservice.Service
	HTTP     *http.Server
}

// OpenStorage picks Postgres when a database host is configured and the
// JSON state file otherwise.
func OpenStorage(ctx context.Context, cfg *config.Config) (database.Service, error) {
	if cfg.UsePostgres() {
		return database.NewService(ctx, cfg.Storage.Postgres)
	}
	log.Info().Str("path", cfg.Storage.StateFile).Msg("Using local state file")
	return database.NewFileStore(cfg.Storage.StateFile), nil
}

// NewAnalyzer connects to Gemini. Without an API key the analyzer still
// works but every flow fails with geminiservice.ErrNotConfigured.
func NewAnalyzer(ctx context.Context, cfg *config.Config) (*geminiservice.Service, error) {
	model, err := geminiservice.NewGenAIModel(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.GeminiTimeout())
	if errors.Is(err, geminiservice.ErrNotConfigured) {
		log.Warn().Msg("GEMINI_API_KEY is not set, analysis requests will fail")
		return geminiservice.NewService(geminiservice.Unconfigured{}), nil
	}
	if err != nil {
		return nil, err
	}
	log.Info().Str("model", model.Name()).Msg("Gemini model ready")
	return geminiservice.NewService(model), nil
}

// New wires storage, auth, inference and the HTTP server.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	storage, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	analyzer, err := NewAnalyzer(ctx, cfg)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("create analyzer: %w", err)
	}

	store := auth.NewStore(ctx, storage, auth.WithDelay(cfg.LoginDelay()))
	sessions := utility.NewSessionStore(cfg.Server.SessionSecret, cfg.IsProduction())

	httpServer := server.NewServer(cfg.Server.Port, server.Deps{
		Storage:       storage,
		Auth:          auth.NewHandler(store, auth.NewTokenIssuer(cfg.Server.SessionSecret, cfg.TokenTTL()), sessions),
		Analysis:      analysis.NewHandler(analyzer, sessions, cfg.Server.MaxUploadSize),
		Hub:           utility.NewHub(),
		Sessions:      sessions,
		MaxUploadSize: cfg.Server.MaxUploadSize,
	})

	return &App{
		Config:   cfg,
		Storage:  storage,
		Auth:     store,
		Analyzer: analyzer,
		HTTP:     httpServer,
	}, nil
}

// Run serves HTTP until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", a.HTTP.Addr).Msg("Server listening")
		if err := a.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")

		// The server has ShutdownTimeout to finish the requests it is handling.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exiting")
		return nil
	})

	return g.Wait()
}

// Close releases the storage backend.
func (a *App) Close() {
	a.Storage.Close()
}
