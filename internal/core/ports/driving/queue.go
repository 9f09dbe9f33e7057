package driving

import (
	"context"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// EnqueueRequest describes new ingestion work from a connector.
type EnqueueRequest struct {
	// OrgID is the organisation namespace.
	OrgID string

	// SourceRef locates the source file.
	SourceRef string

	// ConnectorType names the enqueueing connector.
	ConnectorType domain.ConnectorType

	// Format is the declared source format.
	Format domain.SourceFormat

	// Checksum is the content hash used as the dedup key.
	Checksum string
}

// JobQueue is the durable, checksum-deduplicated ingestion work queue.
type JobQueue interface {
	// Enqueue creates a job, or returns the existing job's ID together
	// with domain.ErrDuplicate when the checksum is already held in a
	// non-failed state for the organisation.
	Enqueue(ctx context.Context, req EnqueueRequest) (string, error)

	// Lease claims the oldest visible job for workerID with the
	// configured visibility timeout. Returns domain.ErrNoJobAvailable
	// when the queue has nothing claimable.
	Lease(ctx context.Context, workerID string) (*domain.IngestionJob, error)

	// Ack marks a job completed. Idempotent.
	Ack(ctx context.Context, jobID string) error

	// Fail records a processing failure. While attempts remain the job
	// re-pends with exponential backoff; otherwise it is marked failed
	// and its source artifact quarantined. Causes wrapping
	// domain.ErrMalformedInput fail terminally at once.
	Fail(ctx context.Context, jobID string, cause error) error

	// Backlog reports per-state counts and oldest-pending age for
	// operator alerting.
	Backlog(ctx context.Context, orgID string) (*domain.BacklogCounts, error)
}
