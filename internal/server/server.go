// Package server exposes the worker trigger and the admin stats surface.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"LicitAI/internal/config"
	"LicitAI/internal/ports"
)

// RunTrigger starts one ingestion cycle; satisfied by usecase.Runner.
type RunTrigger interface {
	Run(ctx context.Context) error
}

// Server wires the HTTP routes around the batch runner and the stats view.
type Server struct {
	addr    string
	trigger RunTrigger
	stats   ports.StatsRepository
	auth    *Auth
	logger  *slog.Logger
	httpSrv *http.Server
}

// New builds the HTTP surface from configuration.
func New(cfg config.ServerConfig, trigger RunTrigger, stats ports.StatsRepository, logger *slog.Logger) *Server {
	return &Server{
		addr:    cfg.Addr,
		trigger: trigger,
		stats:   stats,
		auth:    NewAuth(cfg.JWTSecret, cfg.AdminUserID),
		logger:  logger,
	}
}

// Handler assembles the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleRoot)
	mux.HandleFunc("GET /api/cron/worker", s.handleTrigger)
	mux.HandleFunc("GET /api/admin/stats", s.auth.RequireAdmin(s.handleAdminStats))
	return mux
}

// ListenAndServe blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
	}()

	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "LicitAI API is running."})
}

// handleTrigger runs one ingestion cycle synchronously and reports a
// whole-run summary; individual item outcomes stay in the run metrics.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if s.trigger == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "worker not configured"})
		return
	}

	if err := s.trigger.Run(r.Context()); err != nil {
		s.error("worker run failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "worker de ingestão executado com sucesso"})
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "error", "message": "stats not configured"})
		return
	}

	stats, err := s.stats.AdminStats(r.Context())
	if err != nil {
		s.error("load admin stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "failed to load stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
