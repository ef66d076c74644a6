package documents

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_uploads_total",
		Help: "Total number of document uploads by category and result",
	}, []string{"category", "result"})

	deletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "documents_deletions_total",
		Help: "Total number of document deletions by category and result",
	}, []string{"category", "result"})

	uploadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "documents_upload_bytes",
		Help:    "Size of uploaded documents in bytes",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
	}, []string{"category"})

	reconcileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "documents_reconcile_duration_seconds",
		Help:    "Time spent reconciling a form's documents",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)
