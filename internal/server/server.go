// Package server exposes the reindex trigger, health and metrics over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/redbco/redb-indexmeta/internal/engine"
	"github.com/redbco/redb-indexmeta/internal/lock"
	"github.com/redbco/redb-indexmeta/internal/store"
	"github.com/redbco/redb-indexmeta/pkg/health"
	"github.com/redbco/redb-indexmeta/pkg/logger"
)

// Engine is the part of *engine.Engine the server drives.
type Engine interface {
	Definitions() []engine.IndexInfo
	Plan(name string) ([]store.Statement, error)
	Reindex(ctx context.Context, name string) error
	ReindexAll(ctx context.Context) error
}

type Config struct {
	Addr string
	// Timeout bounds a single reindex request. Zero means no limit.
	Timeout time.Duration
	// ReindexInterval triggers ReindexAll periodically when positive.
	ReindexInterval time.Duration

	Health   *health.Checker
	Gatherer prometheus.Gatherer
	Logger   *logger.Logger
}

type Server struct {
	engine Engine
	router *mux.Router
	cfg    Config
	log    *logger.Logger
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ReindexResponse reports a finished reindex.
type ReindexResponse struct {
	Index    string `json:"index,omitempty"`
	Status   string `json:"status"`
	Duration string `json:"duration"`
}

func New(e Engine, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	if cfg.Health == nil {
		cfg.Health = health.NewChecker()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		engine: e,
		router: mux.NewRouter(),
		cfg:    cfg,
		log:    cfg.Logger,
	}
	s.setupRoutes()
	s.setupMiddleware()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	s.router.HandleFunc("/indexes", s.handleList).Methods(http.MethodGet)
	s.router.HandleFunc("/indexes/reindex", s.handleReindexAll).Methods(http.MethodPost)
	s.router.HandleFunc("/indexes/{name}/plan", s.handlePlan).Methods(http.MethodGet)
	s.router.HandleFunc("/indexes/{name}/reindex", s.handleReindex).Methods(http.MethodPost)
}

func (s *Server) setupMiddleware() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.log.WithFields(map[string]string{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start).String(),
			}).Debug("request handled")
		})
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.ReindexInterval > 0 {
		go s.schedule(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func (s *Server) schedule(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReindexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := s.withTimeout(ctx)
			if err := s.engine.ReindexAll(runCtx); err != nil {
				s.log.Errorf("scheduled reindex failed: %v", err)
			}
			cancel()
		}
	}
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, s.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.cfg.Health.RunAll(r.Context())
	status := s.cfg.Health.GetOverallStatus()

	code := http.StatusOK
	if status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	s.writeJSONResponse(w, code, map[string]interface{}{
		"status":    status,
		"service":   "indexmeta",
		"checks":    s.cfg.Health.GetAllChecks(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"indexes": s.engine.Definitions(),
	})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	stmts, err := s.engine.Plan(name)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"index":      name,
		"statements": stmts,
	})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	start := time.Now()
	if err := s.engine.Reindex(ctx, name); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, ReindexResponse{
		Index:    name,
		Status:   "done",
		Duration: time.Since(start).String(),
	})
}

func (s *Server) handleReindexAll(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.withTimeout(r.Context())
	defer cancel()

	start := time.Now()
	if err := s.engine.ReindexAll(ctx); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, ReindexResponse{
		Status:   "done",
		Duration: time.Since(start).String(),
	})
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var stepErr *engine.StepError
	switch {
	case errors.Is(err, engine.ErrUnknownIndex):
		s.writeErrorResponse(w, http.StatusNotFound, "unknown index", err.Error())
	case errors.Is(err, lock.ErrNotAcquired):
		s.writeErrorResponse(w, http.StatusConflict, "index is being rebuilt", err.Error())
	case errors.As(err, &stepErr):
		s.writeErrorResponse(w, http.StatusInternalServerError, "reindex failed", err.Error())
	default:
		s.writeErrorResponse(w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("failed to encode response: %v", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{Error: message, Message: details})
}
