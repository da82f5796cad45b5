// Package http exposes the build pipeline over HTTP alongside health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquaforge/netbuilder/internal/domain"
	"github.com/aquaforge/netbuilder/internal/pipeline"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// BuildRunner runs one network build, emitting events as it goes.
type BuildRunner interface {
	Build(ctx context.Context, req domain.BuildRequest, emit pipeline.EventFunc) (domain.BuildResult, error)
}

// ProgressPublisher forwards build events to an external channel. It may be
// nil when no publisher is configured.
type ProgressPublisher interface {
	Publish(ctx context.Context, buildID string, event pipeline.Event)
}

// Server exposes /healthz, /readyz, /metrics, and POST /v1/builds.
type Server struct {
	httpServer *http.Server
	runner     BuildRunner
	publisher  ProgressPublisher
	logger     *slog.Logger
}

// NewServer creates the HTTP server. publisher may be nil.
func NewServer(addr string, runner BuildRunner, ready ReadinessChecker, publisher ProgressPublisher, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute, // builds on large networks take a while
			IdleTimeout:  60 * time.Second,
		},
		runner:    runner,
		publisher: publisher,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /v1/builds", s.handleBuild)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// buildResponse is the terminal event plus the build identifier.
type buildResponse struct {
	BuildID string `json:"buildId"`
	pipeline.Event
}

// handleBuild runs one synchronous build. Progress events are logged and,
// when a publisher is configured, forwarded to it; the terminal event is the
// response body.
func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req domain.BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed build request: " + err.Error()})
		return
	}

	buildID := uuid.NewString()
	logger := s.logger.With("build_id", buildID)

	emit := func(e pipeline.Event) {
		if e.Type == "progress" {
			logger.Info("build progress", "task", e.Task)
		}
		if s.publisher != nil {
			s.publisher.Publish(r.Context(), buildID, e)
		}
	}

	res, err := s.runner.Build(r.Context(), req, emit)
	if err != nil {
		if errors.Is(err, pipeline.ErrBuildInProgress) {
			writeJSON(w, http.StatusConflict, buildResponse{
				BuildID: buildID,
				Event:   pipeline.Event{Type: "error", Message: err.Error()},
			})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, buildResponse{
			BuildID: buildID,
			Event:   pipeline.Event{Type: "error", Message: err.Error()},
		})
		return
	}

	writeJSON(w, http.StatusOK, buildResponse{
		BuildID: buildID,
		Event: pipeline.Event{
			Type:     "complete",
			INPFile:  res.INPFile,
			Warnings: res.Warnings,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
