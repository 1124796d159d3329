package domain

// MetricsSummary is a snapshot of service counters for the
// GET /v1/metrics/summary endpoint. Prometheus remains the source of truth;
// this is a convenience view for the admin dashboard.
type MetricsSummary struct {
	TotalRequests int64   `json:"total_requests"`
	ErrorRate     float64 `json:"error_rate"`
	StoreErrors   int64   `json:"store_errors"`
	CacheHitRate  float64 `json:"cache_hit_rate"`
	Period        string  `json:"period"`
}
