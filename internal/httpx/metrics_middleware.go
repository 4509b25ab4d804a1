package httpx

import (
	"net/http"
	"slices"
	"time"

	"librarygql/internal/metrics"
)

// MetricsMiddleware records request counts and latency. Paths outside
// knownPaths share the "other" label to bound cardinality.
func MetricsMiddleware(m *metrics.Metrics, knownPaths ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrap(w)

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if !slices.Contains(knownPaths, path) {
				path = "other"
			}
			m.RecordHTTP(r.Method, path, rw.statusCode, time.Since(start))
		})
	}
}
