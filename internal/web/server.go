// Package web exposes the reconciliation engine over HTTP: spreadsheet
// uploads in, run statistics and history out. There is no HTML surface;
// rendering is the surrounding application's problem.
package web

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ldelafuente/capacita/internal/config"
	"github.com/ldelafuente/capacita/internal/engine"
	"github.com/ldelafuente/capacita/internal/web/middleware"
)

// Server is the HTTP front of the import engine.
type Server struct {
	engine *engine.Engine
	pool   *pgxpool.Pool
	cfg    *config.Config
	http   *http.Server

	// The engine is non-reentrant; concurrent uploads are serialized here.
	importMu sync.Mutex
}

// NewServer wires the router and middleware.
func NewServer(eng *engine.Engine, pool *pgxpool.Pool, cfg *config.Config) *Server {
	s := &Server{engine: eng, pool: pool, cfg: cfg}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/imports/training", s.handleImport(engine.KindTraining))
		r.Post("/imports/roster", s.handleImport(engine.KindRoster))
		r.Get("/imports", s.handleListRuns)
		r.Get("/imports/last", s.handleLastRun)
		r.Get("/imports/last/report", s.handleLastReport)
	})

	s.http = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
