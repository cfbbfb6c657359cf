// internal/api/router.go

// Package api serves the recommendation engine over HTTP.
package api

import (
	"net/http"
	"time"

	"bike-recommender/internal/common/logger"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the public routes. Trailing slashes are accepted so the
// marketplace's existing /similar/{slug}/ links keep working.
func NewRouter(h *Handler, requestTimeout time.Duration, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/recommendations", func(r chi.Router) {
		if requestTimeout > 0 {
			r.Use(chimiddleware.Timeout(requestTimeout))
		}
		r.Get("/similar/{slug}", h.Similar)
		r.Get("/budget", h.Budget)
	})

	return r
}
