// Package chi is the HTTP surface: public read endpoints for search and
// recommendations plus the admin endpoints that trigger background jobs.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/scentlab/scentdex/internal/domain"
	healthuc "github.com/scentlab/scentdex/internal/usecase/health"
	indexinguc "github.com/scentlab/scentdex/internal/usecase/indexing"
	prefuc "github.com/scentlab/scentdex/internal/usecase/preference"
	searchuc "github.com/scentlab/scentdex/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the handlers for all HTTP routes.
type Server struct {
	search        *searchuc.Service
	indexing      *indexinguc.Service
	prefs         *prefuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	indexing *indexinguc.Service,
	prefs *prefuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		indexing: indexing,
		prefs:    prefs,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidCriteria, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrMappingInput, http.StatusUnprocessableEntity, CodeValidationFailed),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, CodeStoreUnavailable),
	}
	return s
}

// Routes registers all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/perfumes/search", s.SearchPerfumes)
		r.Get("/perfumes/{id}/similar", s.SimilarPerfumes)
		r.Get("/members/{id}/recommendations", s.MemberRecommendations)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reindex", s.StartReindex)
			r.Post("/reindex/{id}", s.ReindexPerfume)
			r.Post("/preferences/recompute", s.StartPreferenceRecompute)
		})
	})
}

// SearchPerfumes handles GET /api/v1/perfumes/search.
func (s *Server) SearchPerfumes(w http.ResponseWriter, r *http.Request) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	page, err := s.search.Search(r.Context(), &criteria)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(&page))
}

// SimilarPerfumes handles GET /api/v1/perfumes/{id}/similar.
func (s *Server) SimilarPerfumes(w http.ResponseWriter, r *http.Request) {
	limit, err := limitFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	docs, err := s.search.Similar(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docsToListResponse(docs, limit))
}

// MemberRecommendations handles GET /api/v1/members/{id}/recommendations.
// Members without a preference vector get an empty list.
func (s *Server) MemberRecommendations(w http.ResponseWriter, r *http.Request) {
	limit, err := limitFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	docs, err := s.search.Recommend(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, docsToListResponse(docs, limit))
}

// StartReindex handles POST /api/v1/admin/reindex. The rebuild runs in the
// background; a second request while one is in flight gets 409.
func (s *Server) StartReindex(w http.ResponseWriter, r *http.Request) {
	if !s.indexing.StartReindexAll(r.Context()) {
		writeError(w, http.StatusConflict, CodeConflict, "reindex already in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{Started: true})
}

// ReindexPerfume handles POST /api/v1/admin/reindex/{id}.
func (s *Server) ReindexPerfume(w http.ResponseWriter, r *http.Request) {
	if err := s.indexing.IndexPerfume(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartPreferenceRecompute handles POST /api/v1/admin/preferences/recompute.
func (s *Server) StartPreferenceRecompute(w http.ResponseWriter, r *http.Request) {
	if !s.prefs.StartRecomputeAll(r.Context()) {
		writeError(w, http.StatusConflict, CodeConflict, "preference recompute already in progress")
		return
	}
	writeJSON(w, http.StatusAccepted, JobResponse{Started: true})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
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

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidCriteria,
		domain.ErrNotFound,
		domain.ErrMappingInput,
		domain.ErrStoreUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
