// Package server exposes one shared Settings value and its Player over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cwbudde/algo-synthctl/player"
	"github.com/cwbudde/algo-synthctl/synth"
)

// Server is the HTTP control surface.
type Server struct {
	// mu serialises access to settings; the player has its own lock.
	mu       sync.Mutex
	settings *synth.Settings
	player   *player.Player
	router   *chi.Mux
	logger   *slog.Logger
}

// New returns a server controlling settings and playing through p.
func New(settings *synth.Settings, p *player.Player, logger *slog.Logger) (*Server, error) {
	if settings == nil {
		return nil, errors.New("server: nil settings")
	}
	if p == nil {
		return nil, errors.New("server: nil player")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		settings: settings,
		player:   p,
		router:   chi.NewRouter(),
		logger:   logger,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Get("/params", s.handleListParams)
	r.Get("/params/{name}", s.handleGetParam)
	r.Put("/params/{name}", s.handleSetParam)
	r.Put("/limits/{name}", s.handleSetLimit)
	r.Delete("/limits/{name}", s.handleClearLimit)
	r.Put("/toggles", s.handleSetToggles)

	r.Get("/preset", s.handleGetPreset)
	r.Put("/preset", s.handlePutPreset)

	r.Post("/notes/{note}", s.handlePlayNote)
	r.Delete("/notes/{note}", s.handleStopNote)
	r.Put("/mute", s.handleMute)
	r.Get("/slots", s.handleSlots)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.Any("error", err))
		return err
	}
	return nil
}
