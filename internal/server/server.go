// Package server exposes the start-page document and the sync surface over
// a small local HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/voidtab/voidtab/internal/settings"
	"github.com/voidtab/voidtab/internal/store"
)

// Server wraps the HTTP listener over the document store.
type Server struct {
	store *store.Store
	cfg   settings.ServerSettings
	log   zerolog.Logger

	httpServer *http.Server
}

// New builds a server; routes are wired lazily on Run.
func New(st *store.Store, cfg settings.ServerSettings, log zerolog.Logger) *Server {
	return &Server{
		store: st,
		cfg:   cfg,
		log:   log.With().Str("component", "server").Logger(),
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	})
	return g.Wait()
}
