package models

import "time"

// SystemMetrics is a point-in-time summary of engine instrumentation.
type SystemMetrics struct {
	SolvesTotal              uint64    `json:"solves_total"`
	AverageSolveDurationMs   float64   `json:"average_solve_duration_ms"`
	CommitsTotal             uint64    `json:"commits_total"`
	RejectedCommits          uint64    `json:"rejected_commits"`
	StaleOverrides           uint64    `json:"stale_overrides"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
