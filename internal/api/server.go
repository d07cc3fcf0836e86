// Package api exposes ledgers, weekly metrics and sync over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/saadjs/kcal-sync/internal/service"
	"go.uber.org/zap"
)

// Engine is the part of the sync orchestrator the API needs.
type Engine interface {
	Snapshot(ctx context.Context, userID string) (*service.Snapshot, error)
	Sync(ctx context.Context, userID string) (*service.SyncReport, error)
	LastReport(userID string) (service.SyncReport, bool)
}

type Server struct {
	mx             *chi.Mux
	engine         Engine
	logger         *zap.Logger
	now            func() time.Time
	requestTimeout time.Duration
}

type Options struct {
	Engine         Engine
	Logger         *zap.Logger
	Now            func() time.Time
	RequestTimeout time.Duration
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &Server{
		mx:             chi.NewMux(),
		engine:         opts.Engine,
		logger:         opts.Logger,
		now:            opts.Now,
		requestTimeout: opts.RequestTimeout,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mx.Use(s.RequestIDMiddleware)
	s.mx.Use(s.SettingUpLoggerMiddleware)
	s.mx.Use(middleware.Recoverer)
	s.mx.Use(middleware.Timeout(s.requestTimeout))

	s.mx.Get("/healthz", s.Health)
	s.mx.Route("/api/v1/users/{user}", func(r chi.Router) {
		r.Get("/days/{day}", s.GetDay)
		r.Get("/weeks/{day}", s.GetWeek)
		r.Get("/streak", s.GetStreak)
		r.Get("/perfect-weeks", s.GetPerfectWeeks)
		r.Get("/weight/trend", s.GetWeightTrend)
		r.Get("/weight/change", s.GetWeightChange)
		r.Post("/sync", s.PostSync)
		r.Get("/sync/last", s.GetLastSync)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mx.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
