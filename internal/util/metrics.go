package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_created_total",
		Help: "Total number of purchases recorded",
	})

	PurchasesUpdatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_updated_total",
		Help: "Total number of purchase edits",
	})

	PurchasesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_deleted_total",
		Help: "Total number of purchases deleted",
	})

	ItemsMatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_matched_total",
		Help: "Total number of line items attributed to an existing item",
	})

	ItemsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "items_created_total",
		Help: "Total number of canonical items created by the reconciler",
	})

	MatchingJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_jobs_total",
		Help: "Total number of matching jobs by terminal status",
	}, []string{"status"})

	MatchingJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matching_job_duration_seconds",
		Help:    "Time spent reconciling one matching job",
		Buckets: prometheus.DefBuckets,
	})

	ResyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resync_runs_total",
		Help: "Total number of bulk resync runs by result",
	}, []string{"result"})

	ResyncLineItemsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resync_line_items_processed_total",
		Help: "Total number of line items replayed by resync runs",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
