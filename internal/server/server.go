// Package server exposes the resolution pipeline over HTTP for the download
// front end.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/medialoom/loom/internal/engine"
	"github.com/medialoom/loom/internal/queue"
	"github.com/medialoom/loom/internal/settings"
)

// Server is the HTTP front end over the resolution pipeline.
type Server struct {
	resolver engine.Resolver
	queue    *queue.Store
	settings *settings.Store
	addr     string

	engine *gin.Engine
	server *http.Server
}

// New creates a Server. The queue and settings stores may be shared with
// other parts of the application.
func New(addr string, resolver engine.Resolver, q *queue.Store, st *settings.Store) *Server {
	s := &Server{
		resolver: resolver,
		queue:    q,
		settings: st,
		addr:     addr,
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(requestLogger())

	api := s.engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/resolve", s.handleResolve)
	api.GET("/queue", s.handleQueueList)
	api.DELETE("/queue", s.handleQueueClear)
	api.DELETE("/queue/:id", s.handleQueueRemove)
	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handleSetSettings)

	return s
}

// Handler returns the underlying HTTP handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(shutdownCtx)
}

// requestLogger emits one structured log line per request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int64("elapsed_ms", time.Since(start).Milliseconds()).
			Msg("Request handled")
	}
}
