package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/compost-norm-service/internal/domain"
	"github.com/couchcryptid/compost-norm-service/internal/observability"
	"github.com/couchcryptid/compost-norm-service/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// Server exposes the report API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	reports    report.Source
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /api/composteurs/{id}/report routes.
func NewServer(addr string, ready ReadinessChecker, reports report.Source, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		reports: reports,
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/composteurs/{id}/report", s.handleReport)

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

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.metrics.ReportRequests.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "compost id must be a positive integer")
		return
	}

	rep, err := s.reports.Report(r.Context(), id)
	switch {
	case err == nil:
		s.metrics.ReportRequests.WithLabelValues("success").Inc()
		sharedobs.WriteJSON(w, http.StatusOK, rep)
	case errors.Is(err, domain.ErrCompostNotFound):
		s.metrics.ReportRequests.WithLabelValues("not_found").Inc()
		writeError(w, http.StatusNotFound, "compost not found")
	default:
		s.logger.Error("report failed", "error", err, "compost_id", id)
		s.metrics.ReportRequests.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "failed to build report")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
