// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_refresh_runs_completed_total",
			Help: "Total number of completed recommendation refresh runs",
		},
		[]string{"trigger"},
	)

	RefreshRunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_refresh_runs_failed_total",
			Help: "Total number of failed recommendation refresh runs",
		},
		[]string{"trigger", "error_code"},
	)

	RefreshRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "engine_refresh_run_duration_seconds",
			Help: "Duration of a recommendation refresh run in seconds",
		},
		[]string{"trigger"},
	)

	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_catalog_requests_total",
			Help: "Total number of listing catalog API requests",
		},
		[]string{"operation", "status"},
	)

	CandidatesScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_candidates_scored_total",
			Help: "Total number of scored listing candidates",
		},
		[]string{"source"},
	)

	RecommendationsStored = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "engine_recommendations_stored",
			Help: "Recommendations stored in the last run per block",
		},
		[]string{"block"},
	)
)
