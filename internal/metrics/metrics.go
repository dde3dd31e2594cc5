package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PackagesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "packagesync_packages_created_total",
		Help: "Total number of packages successfully created.",
	})

	PackagesUpdatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "packagesync_packages_updated_total",
		Help: "Total number of successful package updates by resulting status.",
	},
		[]string{"status"},
	)

	PackagesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "packagesync_packages_deleted_total",
		Help: "Total number of packages removed.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "packagesync_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "packagesync_logins_total",
		Help: "Login attempts by result.",
	},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "packagesync_http_request_duration_seconds",
		Help:    "HTTP request latency by method and status code.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"method", "code"},
	)

	AuditPendingEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "packagesync_audit_pending_entries",
		Help: "Audit entries accepted but not yet published.",
	})
)
