package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/adsbdb/adsbdb-go/internal/apperr"
	"github.com/adsbdb/adsbdb-go/internal/monitoring"
	"github.com/adsbdb/adsbdb-go/internal/security"
)

// Router builds the full request-pipeline router: a root mux carrying
// panic recovery, request IDs and ETags, mounting a versioned (/v0)
// subrouter that layers CORS, the rate limiter, tracing, metrics and logging
// ahead of the route handlers, in that order.
func (s *Server) Router() http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Recoverer)
	root.Use(middleware.RequestID)
	root.Use(monitoring.ETagMiddleware)

	methods := "GET, OPTIONS"
	if s.Config.PatchEnabled() {
		methods = "GET, PATCH, OPTIONS"
	}

	v0 := chi.NewRouter()
	v0.Use(security.CORS(methods))
	v0.Use(s.rateLimitMiddleware)
	v0.Use(monitoring.TracingMiddleware)
	v0.Use(monitoring.MetricsMiddleware)
	v0.Use(monitoring.LoggingMiddleware)

	v0.Get("/aircraft/{id}", s.handleAircraft)
	v0.Get("/airline/{code}", s.handleAirline)
	v0.Get("/callsign/{cs}", s.handleCallsign)
	v0.Get("/n-number/{n}", s.handleNNumber)
	v0.Get("/mode-s/{s}", s.handleModeS)
	v0.Get("/online", s.handleOnline)
	v0.Patch("/aircraft/{mode_s}", s.handlePatchAircraft)
	v0.Patch("/callsign/{cs}", s.handlePatchCallsign)
	v0.NotFound(notFound)

	root.Mount("/"+APIVersion, v0)
	root.Get("/metrics", monitoring.PrometheusHandler().ServeHTTP)
	root.NotFound(notFound)

	return root
}

// rateLimitMiddleware gates every /v0 request on the per-IP limiter before
// any handler or downstream middleware runs, per spec.md §7.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.Limiter.Allow(r.Context(), security.ClientIP(r)); err != nil {
			if e, ok := apperr.As(err); ok && e.Kind == apperr.KindRateLimited {
				monitoring.RateLimitRejections.WithLabelValues(strconv.Itoa(e.Window)).Inc()
			}
			writeErr(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
