package models

import "time"

// SystemMetrics is a lightweight aggregate exposed on the metrics summary
// endpoint, alongside the raw Prometheus exposition.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	PlannerRuns              uint64    `json:"planner_runs"`
	ItemsScheduled           uint64    `json:"items_scheduled"`
	ItemsUnscheduled         uint64    `json:"items_unscheduled"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
