// Package metrics exposes Prometheus instrumentation for the reconciliation
// loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PassesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetsync_passes_total",
			Help: "Total number of completed reconciliation passes",
		},
	)

	PassDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assetsync_pass_duration_seconds",
			Help:    "Duration of one reconciliation pass",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	AssetsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetsync_assets_processed_total",
			Help: "Assets processed per pass, by urgency classification",
		},
		[]string{"urgency"},
	)

	AssetsSkippedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetsync_assets_skipped_total",
			Help: "Assets skipped because they carry no parseable due date",
		},
	)

	IssuesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetsync_issues_created_total",
			Help: "Remediation issues created",
		},
	)

	CommentsPostedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetsync_comments_posted_total",
			Help: "Comments posted on remediation issues",
		},
	)

	TransitionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assetsync_transitions_total",
			Help: "Workflow transitions executed on remediation issues",
		},
	)

	RemoteErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assetsync_remote_errors_total",
			Help: "Remote call failures by collaborator",
		},
		[]string{"collaborator"},
	)
)
