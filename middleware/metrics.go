package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/compevent/compete-system/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Metrics records request count and latency per route pattern, so path
// parameters do not explode the label space.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		status := strconv.Itoa(ww.Status())

		metrics.RequestCounter.WithLabelValues(status, r.Method, pattern).Inc()
		metrics.RequestDuration.WithLabelValues(status, r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}
