package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	mw "github.com/nanosynth/nanosynth/internal/api/middleware"
	"github.com/nanosynth/nanosynth/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit
	Metrics   mw.RequestRecorder

	HealthHandler          http.HandlerFunc
	MethodsHandler         http.HandlerFunc
	DesignHandler          http.HandlerFunc
	AnalysisHandler        http.HandlerFunc
	TriggerDesignHandler   http.HandlerFunc
	TriggerAnalysisHandler http.HandlerFunc
	PollJobHandler         http.HandlerFunc
	ReportHandler          http.HandlerFunc
	MetricsHandler         http.Handler
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	if deps.Metrics != nil {
		r.Use(mw.Metrics(deps.Metrics))
	}

	// Public endpoints
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Get("/api/v1/methods", orNotImplemented(deps.MethodsHandler))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// Polling and report download stay outside the limiter
	r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.PollJobHandler))
	r.Get("/api/v1/jobs/{jobID}/report", orNotImplemented(deps.ReportHandler))

	// Rate-limited submissions
	r.Group(func(r chi.Router) {
		r.Use(mw.ClientID)
		if deps.RateLimit != nil {
			r.Use(deps.RateLimit.Limit)
		}

		r.Post("/api/v1/designs", orNotImplemented(deps.DesignHandler))
		r.Post("/api/v1/analyses/{kind}", orNotImplemented(deps.AnalysisHandler))

		r.Post("/api/v1/jobs/designs", orNotImplemented(deps.TriggerDesignHandler))
		r.Post("/api/v1/jobs/analyses/{kind}", orNotImplemented(deps.TriggerAnalysisHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
