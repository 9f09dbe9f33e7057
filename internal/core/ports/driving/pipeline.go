package driving

import (
	"context"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// Pipeline runs ingestion workers against the job queue: each worker
// leases a job, extracts, OCRs where needed, chunks and persists, then
// acknowledges.
type Pipeline interface {
	// Run starts the worker pool and blocks until ctx is cancelled and
	// in-flight jobs drain.
	Run(ctx context.Context) error

	// ProcessOne leases and processes a single job. Returns
	// domain.ErrNoJobAvailable when the queue is empty. Used by tests
	// and the one-shot CLI path.
	ProcessOne(ctx context.Context, workerID string) error

	// Status reports cumulative pipeline counters.
	Status() PipelineStatus
}

// PipelineStatus is a snapshot of pipeline activity.
type PipelineStatus struct {
	// JobsProcessed counts acknowledged jobs.
	JobsProcessed int

	// JobsFailed counts jobs handed back through Fail.
	JobsFailed int

	// ChunksProduced counts persisted chunks.
	ChunksProduced int

	// OCR aggregates coordinator statistics across all documents.
	OCR domain.OCRStats
}
