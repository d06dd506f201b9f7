// Package metrics exposes Prometheus metrics for the relay.
//
// A Collector owns its registry, so tests and multiple servers in one
// process never collide on the default registerer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "openai_relay"

// Buckets tuned for LLM request latencies.
var durationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

// Collector records inbound HTTP, upstream call, and token metrics.
type Collector struct {
	registry *prometheus.Registry

	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpInFlight     prometheus.Gauge
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamErrors   *prometheus.CounterVec
	promptTokens     prometheus.Histogram
}

// NewCollector creates a Collector with a fresh registry that also carries
// the Go runtime and process collectors.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newCollector(reg)
}

func newCollector(reg *prometheus.Registry) *Collector {
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed.",
		}, []string{"method", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "The HTTP request latencies in seconds.",
			Buckets:   durationBuckets,
		}, []string{"method"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being served.",
		}),
		upstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upstream_requests_total",
			Help:      "Upstream calls by route and status code.",
		}, []string{"route", "code"}),
		upstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream call latencies in seconds.",
			Buckets:   durationBuckets,
		}, []string{"route"}),
		upstreamErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "upstream_errors_total",
			Help:      "Failed upstream calls by route and kind (upstream or transport).",
		}, []string{"route", "kind"}),
		promptTokens: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "chat_prompt_tokens",
			Help:      "Estimated prompt tokens of forwarded chat completions.",
			Buckets:   prometheus.ExponentialBuckets(8, 4, 8),
		}),
	}
}

// ObserveHTTP records one served inbound request.
func (c *Collector) ObserveHTTP(method string, code int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	c.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// InFlight returns the gauge of requests currently being served.
func (c *Collector) InFlight() prometheus.Gauge {
	return c.httpInFlight
}

// ObserveUpstream records one upstream call. code 0 means no response was
// received.
func (c *Collector) ObserveUpstream(route string, code int, d time.Duration) {
	c.upstreamRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	c.upstreamDuration.WithLabelValues(route).Observe(d.Seconds())
}

// UpstreamError counts a failed upstream call.
func (c *Collector) UpstreamError(route, kind string) {
	c.upstreamErrors.WithLabelValues(route, kind).Inc()
}

// ObservePromptTokens records a chat prompt token estimate.
func (c *Collector) ObservePromptTokens(n int) {
	c.promptTokens.Observe(float64(n))
}

// RegisterCacheStats exposes hit and miss counters read from stats on
// every scrape.
func (c *Collector) RegisterCacheStats(name string, stats func() (hits, misses uint64)) {
	c.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: name,
			Name:      "cache_hits_total",
			Help:      "Cache lookups served from memory.",
		}, func() float64 {
			h, _ := stats()
			return float64(h)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: name,
			Name:      "cache_misses_total",
			Help:      "Cache lookups that fell through to storage.",
		}, func() float64 {
			_, m := stats()
			return float64(m)
		}),
	)
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the Prometheus exposition handler for this collector.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
