// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/medialoom/loom/internal/auth"
	"github.com/medialoom/loom/internal/cache"
	"github.com/medialoom/loom/internal/config"
	"github.com/medialoom/loom/internal/engine"
	"github.com/medialoom/loom/internal/engine/external"
	"github.com/medialoom/loom/internal/engine/fallback"
	"github.com/medialoom/loom/internal/engine/metadata"
	"github.com/medialoom/loom/internal/queue"
	"github.com/medialoom/loom/internal/ratelimit"
	"github.com/medialoom/loom/internal/settings"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Cache       cache.Cache
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *http.Client
	External    *external.Client
	Fallback    *fallback.Invoker
	Pipeline    *engine.Pipeline
	Queue       *queue.Store
	Settings    *settings.Store
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the in-memory result cache
//   - Creates the per-domain rate limiter
//   - Initializes the HTTP client with proper timeouts
//   - Creates the external resolver client and the fallback script invoker
//   - Wires both into the resolution pipeline
//
// If any step fails, an error is returned and no resources are allocated.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize logger based on config
	logLevel := zerolog.ErrorLevel // default: suppress non-verbose info logs
	switch cfg.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	// Treat "info" as non-verbose (don't display info logs unless -v is used)
	default:
		logLevel = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var logWriter io.Writer
	if cfg.JSONLog {
		// JSON logs to stderr
		logWriter = os.Stderr
	} else {
		// Human-friendly console output otherwise
		logWriter = zerolog.NewConsoleWriter()
	}

	logger := log.Output(logWriter).With().Timestamp().Logger()

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	// Create result cache
	memCache := cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
	logger.Debug().
		Int64("max_size_bytes", cfg.CacheMaxSizeBytes).
		Msg("Memory cache initialized")

	// Create rate limiter
	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Msg("Rate limiter initialized")

	// Create HTTP client
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			DisableKeepAlives:   false,
		},
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Msg("HTTP client initialized")

	// Create resolvers. The external client authenticates with the stored API
	// key when one is available.
	extOpts := []external.Option{external.WithHTTPClient(httpClient)}
	if key := auth.LoadAPIKey(); key != "" {
		extOpts = append(extOpts, external.WithAPIKey(key))
		logger.Debug().Msg("Resolver API key loaded")
	}
	externalClient := external.New(cfg.ExternalEndpoint, cfg.ExternalTimeout, cfg.UserAgent, extOpts...)
	fallbackInvoker := fallback.New(cfg.FallbackInterpreter, cfg.FallbackScript, cfg.FallbackTimeout)

	prefetcher := metadata.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent)

	pipeline := engine.NewPipeline(externalClient, fallbackInvoker,
		engine.WithCache(memCache, cfg.CacheTTL),
		engine.WithRateLimiter(rateLimiter),
		engine.WithPrefetcher(prefetcher),
	)
	logger.Debug().Msg("Resolution pipeline initialized")

	settingsPath, err := settings.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolving settings path: %w", err)
	}

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Cache:       memCache,
		RateLimiter: rateLimiter,
		HTTPClient:  httpClient,
		External:    externalClient,
		Fallback:    fallbackInvoker,
		Pipeline:    pipeline,
		Queue:       queue.NewStore(),
		Settings:    settings.Open(settingsPath),
		startTime:   time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

// Close gracefully shuts down the application and all its resources.
//
// Any errors during shutdown are logged but do not prevent other
// shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Msg("Shutting down application")

	if a.Cache != nil {
		a.Cache.Close()
	}

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	uptime := time.Since(a.startTime)
	a.Logger.Info().Dur("uptime", uptime).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
