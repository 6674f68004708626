// Package chi holds the hand-written HTTP layer: handlers, DTOs, error mapping,
// and the request middleware.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/assesshub/recommender/internal/domain"
	healthuc "github.com/assesshub/recommender/internal/usecase/health"
	recommenduc "github.com/assesshub/recommender/internal/usecase/recommend"
	"github.com/assesshub/recommender/internal/version"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server exposes the recommendation pipeline over HTTP.
type Server struct {
	recommend     *recommenduc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(recommend *recommenduc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		recommend: recommend,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		// Validation keeps the wrapped detail so the caller learns which field failed.
		detailedHandler(domain.ErrValidation, http.StatusBadRequest, codeValidation),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrConflict, http.StatusConflict, codeConflict),
		sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway, codeEmbeddingError),
		sentinelHandler(domain.ErrRetrieval, http.StatusServiceUnavailable, codeRetrievalError),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Post("/api/v1/recommendations", s.Recommendations)
	r.Get("/health", s.Health)
	r.Get("/health/ready", s.Ready)
	r.Get("/metrics", s.Metrics)
}

// Recommendations handles POST /api/v1/recommendations.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.recommend.Recommend(r.Context(), req.Query, req.TopK, filterFromRequest(req.Filters))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, responseFromResult(result))
}

// Health handles GET /health: pure liveness, no dependency checks, fixed payload.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// Ready handles GET /health/ready with a dependency report. The store being down
// makes the service not ready; a degraded embedding provider does not, since
// cached queries still work.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler matches a single sentinel error and writes its bare message,
// never the wrapped internals.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// detailedHandler matches a sentinel and keeps the full wrapped message. Only safe
// for errors built from request input, such as validation failures.
func detailedHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
