// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "bike-recommender/internal/common/errors"
	"bike-recommender/internal/common/logger"
	"bike-recommender/internal/recommendation"

	"github.com/go-chi/chi/v5"
)

// Recommender is the engine surface the HTTP layer serves.
type Recommender interface {
	SimilarTo(ctx context.Context, slug string, limit int) ([]recommendation.SimilarResult, error)
	NearBudget(ctx context.Context, budget float64, limit int) ([]recommendation.BudgetResult, error)
	DefaultLimit() int
	CacheMode() string
	Ping(ctx context.Context) error
}

type Handler struct {
	engine Recommender
	logger logger.Logger
}

func NewHandler(engine Recommender, log logger.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Similar handles GET /api/recommendations/similar/{slug}.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	limit, err := h.parseLimit(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	results, err := h.engine.SimilarTo(r.Context(), chi.URLParam(r, "slug"), limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

// Budget handles GET /api/recommendations/budget?price=<n>.
func (h *Handler) Budget(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("price"))
	if raw == "" {
		h.respondError(w, r, apperrors.NewInvalidBudgetError("price query parameter is required"))
		return
	}
	budget, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(budget) || math.IsInf(budget, 0) {
		h.respondError(w, r, apperrors.NewInvalidBudgetError("price must be a number"))
		return
	}

	limit, err := h.parseLimit(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	results, err := h.engine.NearBudget(r.Context(), budget, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready pings the candidate store. The cache is optional and only reported.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"status": "ready",
		"cache":  h.engine.CacheMode(),
	}
	if err := h.engine.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", map[string]interface{}{"error": err.Error()})
		body["status"] = "unavailable"
		body["error"] = err.Error()
		respondJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	respondJSON(w, http.StatusOK, body)
}

func (h *Handler) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.engine.DefaultLimit(), nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, apperrors.NewInvalidInputError("limit must be a non-negative integer")
	}
	return limit, nil
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := apperrors.AsStandardError(err)
	status := statusFor(stdErr)

	fields := map[string]interface{}{
		"requestId": RequestIDFrom(r.Context()),
		"path":      r.URL.Path,
		"code":      string(stdErr.Code),
		"status":    status,
	}
	body := errorBody{Code: string(stdErr.Code), Message: stdErr.Message}
	if status >= http.StatusInternalServerError {
		fields["error"] = err.Error()
		h.logger.Error("request failed", fields)
	} else {
		body.Details = stdErr.Details
		h.logger.Info("request rejected", fields)
	}

	respondJSON(w, status, body)
}

func statusFor(err *apperrors.StandardError) int {
	switch err.Code {
	case apperrors.ErrCodeInvalidBudget, apperrors.ErrCodeInvalidInput, apperrors.ErrCodeParseError:
		return http.StatusBadRequest
	}
	if err.Retryable {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
