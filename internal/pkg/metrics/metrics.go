// Package metrics defines and registers the custom Prometheus metrics for the
// account service. It is the single source of truth for metric names, labels,
// and help strings.
//
// All metrics are registered with the default registry at package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "accounts"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "success", "missing_credential", "not_found", "invalid_credential", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// RefreshRotationsTotal counts refresh-token presentations.
// Label:
//   - result: "rotated", "auth_required", "token_invalid", "token_mismatch", "error"
var RefreshRotationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_rotations_total",
		Help:      "Total number of refresh attempts, by result.",
	},
	[]string{"result"},
)

// LogoutsTotal counts completed logouts.
var LogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logouts_total",
		Help:      "Total number of logouts.",
	},
)

// ── Asset metrics ─────────────────────────────────────────────────────────────

// AssetOperationsTotal counts calls to the object store.
// Labels:
//   - op: "upload" or "delete"
//   - result: "ok" or "error"
var AssetOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_operations_total",
		Help:      "Total number of asset store operations, by operation and result.",
	},
	[]string{"op", "result"},
)

// AssetOperationDuration measures object store latency.
// Label:
//   - op: "upload" or "delete"
var AssetOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "asset_operation_duration_seconds",
		Help:      "Duration of asset store operations.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// CleanupJobsTotal counts background deletions of orphaned assets.
// Label:
//   - result: "deleted", "failed", "dropped"
var CleanupJobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_cleanup_jobs_total",
		Help:      "Total number of asset cleanup jobs, by result.",
	},
	[]string{"result"},
)

// CleanupQueueDepth tracks pending cleanup jobs per worker.
// Label:
//   - worker_id: numeric worker index
var CleanupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "asset_cleanup_queue_depth",
		Help:      "Current number of cleanup jobs pending in each worker channel.",
	},
	[]string{"worker_id"},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// RegistrationsTotal counts successfully created accounts.
var RegistrationsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of accounts registered.",
	},
)
