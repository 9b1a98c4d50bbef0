package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orcamento/internal/cache"
)

const metricsNamespace = "orcamento"

// knownRoutes bounds the route label cardinality.
var knownRoutes = map[string]struct{}{
	"/healthz":          {},
	"/readyz":           {},
	"/metrics":          {},
	"/api/dashboard":    {},
	"/api/summary":      {},
	"/api/transactions": {},
	"/api/projection":   {},
	"/api/cards":        {},
	"/api/goals":        {},
	"/api/recurring":    {},
	"/api/splits/equal": {},
}

// Metrics owns the Prometheus registry exposed on /metrics.
type Metrics struct {
	registry      *prometheus.Registry
	duration      *prometheus.HistogramVec
	recorded      *prometheus.CounterVec
	splitMismatch prometheus.Counter
	rateLimited   prometheus.Counter
}

type cacheStatser interface {
	CacheStats() cache.Stats
}

// NewMetrics registers the HTTP collectors. When stats is not nil the
// dashboard cache hit and miss counts are exported too.
func NewMetrics(stats cacheStatser) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		recorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transactions_recorded_total",
			Help:      "Stored transaction records by kind, installments counted individually.",
		}, []string{"kind"}),
		splitMismatch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "split_mismatch_total",
			Help:      "Records rejected because their split did not add up.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Write requests rejected by the rate limiter.",
		}),
	}
	reg.MustRegister(m.duration, m.recorded, m.splitMismatch, m.rateLimited)

	if stats != nil {
		reg.MustRegister(
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "dashboard_cache",
				Name:      "hits_total",
				Help:      "Dashboard computations served from cache.",
			}, func() float64 { return float64(stats.CacheStats().Hits) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "dashboard_cache",
				Name:      "misses_total",
				Help:      "Dashboard computations that had to be derived.",
			}, func() float64 { return float64(stats.CacheStats().Misses) }),
		)
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest matches trace.Observer.
func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	m.duration.WithLabelValues(method, routeLabel(path), strconv.Itoa(status)).Observe(d.Seconds())
}

func routeLabel(path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return "other"
}
