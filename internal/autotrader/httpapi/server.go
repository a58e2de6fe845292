// Package httpapi exposes the scheduler's status, health, and manual-trigger
// surface: a small chi router scoped to what an operator or uptime monitor
// needs from C1.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/quantedge/scheduler-core/internal/autotrader/orchestrator"
)

// Orchestrator is the narrow slice of *orchestrator.Orchestrator this surface needs.
type Orchestrator interface {
	Status() orchestrator.Status
	TriggerManual()
}

// MetricsHandler serves the Prometheus exposition format; *metrics.Metrics satisfies it.
type MetricsHandler interface {
	Handler() http.Handler
}

// Server serves /health and the /api/status, /api/trigger operator endpoints.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	orch    Orchestrator
	metrics MetricsHandler
}

// New builds a Server listening on port, wired to orch. metrics may be nil,
// in which case /metrics is not registered.
func New(orch Orchestrator, metrics MetricsHandler, port int, devMode bool, log zerolog.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     log.With().Str("component", "httpapi").Logger(),
		orch:    orch,
		metrics: metrics,
	}

	s.setupMiddleware(devMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/trigger", s.handleTrigger)
	})
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.orch.Status()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(st); err != nil {
		s.log.Error().Err(err).Msg("encode status response failed")
	}
}

// handleTrigger fires a manual Cycle and responds 202 once TriggerManual
// returns. TriggerManual runs the Cycle synchronously, so the response waits
// for it; a Cycle already running makes the trigger a silent no-op.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	s.orch.TriggerManual()
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status":"triggered"}`))
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting http api")
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
