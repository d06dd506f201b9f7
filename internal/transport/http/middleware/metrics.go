package middleware

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPObserver receives one observation per served request.
type HTTPObserver interface {
	ObserveHTTP(method string, code int, d time.Duration)
	InFlight() prometheus.Gauge
}

// Metrics records request counts, latencies and the in-flight gauge.
func Metrics(obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inFlight := obs.InFlight()
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			wrapped := wrap(w)
			next.ServeHTTP(wrapped, r)

			obs.ObserveHTTP(r.Method, wrapped.statusCode, time.Since(start))
		})
	}
}
