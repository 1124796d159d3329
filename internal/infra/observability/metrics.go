package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/vinayakry63/lead-manager/internal/domain"
)

// Metrics holds all Prometheus metrics for the lead manager.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	opDuration    *prometheus.HistogramVec
	storeErrors   *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	requestsTotal *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		opDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leads_operation_duration_seconds",
				Help:    "Duration of service operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_store_errors_total",
				Help: "Total transient errors from the persistent store.",
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordOpDuration records the duration of a service operation.
func (m *Metrics) RecordOpDuration(operation string, d time.Duration) {
	m.opDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrStoreError increments the transient store error counter.
func (m *Metrics) IncrStoreError(operation string) {
	m.storeErrors.WithLabelValues(operation).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetSummary returns a snapshot of service counters for the
// GET /v1/metrics/summary endpoint.
func (m *Metrics) GetSummary() *domain.MetricsSummary {
	success := getCounterValue(m.requestsTotal, "success")
	failed := getCounterValue(m.requestsTotal, "error")
	total := success + failed

	storeErrors := float64(0)
	for _, op := range []string{"insert", "count", "list", "get", "get_by_email", "update", "delete", "create_user", "get_user"} {
		storeErrors += getCounterValue(m.storeErrors, op)
	}

	cacheHits := getCounterValue(m.cacheHits, "session_user")
	cacheMisses := getCounterValue(m.cacheMisses, "session_user")

	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.MetricsSummary{
		TotalRequests: int64(total),
		ErrorRate:     errorRate,
		StoreErrors:   int64(storeErrors),
		CacheHitRate:  cacheHitRate,
		Period:        "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
