package driven

import (
	"context"
	"time"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// JobStore persists ingestion jobs and serialises lease transitions.
// It is the single source of truth for job status: no two callers may
// claim the same job for overlapping lease windows, even across
// processes. Implementations must make Lease atomic.
type JobStore interface {
	// Create stores a new job.
	Create(ctx context.Context, job *domain.IngestionJob) error

	// Get retrieves a job by ID.
	Get(ctx context.Context, id string) (*domain.IngestionJob, error)

	// FindActiveByChecksum returns the non-failed job holding the
	// checksum within the organisation, or domain.ErrNotFound.
	// Failed jobs do not block re-enqueueing the same content.
	FindActiveByChecksum(ctx context.Context, orgID, checksum string) (*domain.IngestionJob, error)

	// Lease atomically claims the oldest leasable job (pending past its
	// backoff delay, or leased with an expired lease), marks it leased by
	// workerID with expiry now+timeout, and returns it. Returns
	// domain.ErrNoJobAvailable when nothing is claimable.
	Lease(ctx context.Context, workerID string, timeout time.Duration) (*domain.IngestionJob, error)

	// Ack marks a job completed. Idempotent when already completed;
	// domain.ErrNotFound for unknown jobs.
	Ack(ctx context.Context, id string) error

	// Retry returns a leased job to pending with the given visibility
	// delay, incrementing its attempt count and recording the cause.
	Retry(ctx context.Context, id string, cause string, delay time.Duration) error

	// MarkFailed moves a job to the terminal failed state with the cause
	// recorded verbatim.
	MarkFailed(ctx context.Context, id string, cause string) error

	// Backlog returns per-state counts and the oldest pending age.
	Backlog(ctx context.Context, orgID string) (*domain.BacklogCounts, error)
}
