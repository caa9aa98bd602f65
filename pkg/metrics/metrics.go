// Package metrics exposes Prometheus instrumentation for bucket and store
// operations. Collectors are registered on the default registry at package
// init; the API server serves them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gridstore"

var (
	// UploadedBytes counts bytes accepted by upload streams, per bucket.
	UploadedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Total bytes written through upload streams",
	}, []string{"bucket"})

	// DownloadedBytes counts bytes served by download streams, per bucket.
	DownloadedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "downloaded_bytes_total",
		Help:      "Total bytes read through download streams",
	}, []string{"bucket"})

	// ChunksWritten counts chunk documents persisted, per bucket.
	ChunksWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunks_written_total",
		Help:      "Total chunk documents inserted",
	}, []string{"bucket"})

	// ChunksRead counts chunk documents pulled and validated, per bucket.
	ChunksRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chunks_read_total",
		Help:      "Total chunk documents read and validated",
	}, []string{"bucket"})

	// FlushBatches counts chunk batch inserts, per bucket.
	FlushBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flush_batches_total",
		Help:      "Total chunk batch insert operations",
	}, []string{"bucket"})

	// FilesCompleted counts successfully finalized uploads, per bucket.
	FilesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_completed_total",
		Help:      "Total uploads finalized with a file document",
	}, []string{"bucket"})

	// FilesAborted counts aborted uploads, per bucket.
	FilesAborted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "files_aborted_total",
		Help:      "Total uploads aborted before finalization",
	}, []string{"bucket"})

	// IntegrityFailures counts chunk validation failures by kind
	// ("sequence" or "size"), per bucket.
	IntegrityFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "integrity_failures_total",
		Help:      "Total chunk integrity validation failures",
	}, []string{"bucket", "kind"})

	// StoreErrors counts document store failures by operation phase
	// ("flush", "finalize", "abort", "read", "delete", "drop"), per bucket.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_errors_total",
		Help:      "Total document store failures by phase",
	}, []string{"bucket", "phase"})
)
