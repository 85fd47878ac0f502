package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RequestRecorder counts served requests. *metrics.Recorder satisfies it.
type RequestRecorder interface {
	HTTPRequest(method, route string, status int)
}

// Metrics records every request under its chi route pattern. Requests that
// match no route are recorded as "unmatched".
func Metrics(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sr, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			rec.HTTPRequest(r.Method, route, sr.status)
		})
	}
}
