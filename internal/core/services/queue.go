package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
	"github.com/parchmint/ingest-cli/internal/core/ports/driving"
	"github.com/parchmint/ingest-cli/internal/logger"
)

// Ensure JobQueueService implements the interface.
var _ driving.JobQueue = (*JobQueueService)(nil)

// QueueConfig tunes lease and retry behaviour.
type QueueConfig struct {
	// LeaseTimeout is the visibility window a worker holds on a claimed
	// job before other workers may reclaim it.
	LeaseTimeout time.Duration

	// MaxAttempts bounds processing attempts before a job fails
	// terminally.
	MaxAttempts int

	// BackoffBase is the retry delay after the first failure; it doubles
	// per attempt up to BackoffCap.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// AgeAlertThreshold flags the backlog when the oldest pending job
	// exceeds it.
	AgeAlertThreshold time.Duration
}

// DefaultQueueConfig returns production defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		LeaseTimeout:      5 * time.Minute,
		MaxAttempts:       5,
		BackoffBase:       30 * time.Second,
		BackoffCap:        15 * time.Minute,
		AgeAlertThreshold: time.Hour,
	}
}

// JobQueueService is the durable ingestion work queue. Deduplication,
// lease claiming and retry accounting live in the job store; this layer
// applies the enqueue validation, the backoff schedule and the terminal
// failure path (artifact quarantine).
type JobQueueService struct {
	jobs      driven.JobStore
	artifacts driven.ArtifactStore
	cfg       QueueConfig
}

// NewJobQueueService creates a job queue over the given store. The
// artifact store is optional; without one, terminally failed jobs keep
// their source artifact in place.
func NewJobQueueService(jobs driven.JobStore, artifacts driven.ArtifactStore, cfg QueueConfig) *JobQueueService {
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = DefaultQueueConfig().LeaseTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultQueueConfig().MaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultQueueConfig().BackoffBase
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = DefaultQueueConfig().BackoffCap
	}
	return &JobQueueService{jobs: jobs, artifacts: artifacts, cfg: cfg}
}

// Enqueue creates a job for new source content. A checksum already held
// in a non-failed state for the organisation returns the existing job's
// ID alongside domain.ErrDuplicate.
func (q *JobQueueService) Enqueue(ctx context.Context, req driving.EnqueueRequest) (string, error) {
	if req.OrgID == "" || req.SourceRef == "" || req.Checksum == "" {
		return "", fmt.Errorf("%w: org, source ref and checksum are required", domain.ErrInvalidInput)
	}

	// 1. Fast path: an active job already holds the checksum.
	existing, err := q.jobs.FindActiveByChecksum(ctx, req.OrgID, req.Checksum)
	if err == nil {
		return existing.ID, domain.ErrDuplicate
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("find by checksum: %w", err)
	}

	// 2. Create the job. The store's uniqueness guard closes the race
	// between the lookup above and this insert.
	job := &domain.IngestionJob{
		ID:            uuid.NewString(),
		OrgID:         req.OrgID,
		Checksum:      req.Checksum,
		ConnectorType: req.ConnectorType,
		SourceRef:     req.SourceRef,
		Format:        req.Format,
		Status:        domain.JobPending,
		EnqueuedAt:    time.Now(),
	}
	if err := q.jobs.Create(ctx, job); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			if existing, ferr := q.jobs.FindActiveByChecksum(ctx, req.OrgID, req.Checksum); ferr == nil {
				return existing.ID, domain.ErrDuplicate
			}
			return "", domain.ErrDuplicate
		}
		return "", fmt.Errorf("create job: %w", err)
	}

	logger.Debug("Enqueued job %s (%s, %s)", job.ID, req.OrgID, req.SourceRef)
	return job.ID, nil
}

// Lease claims the oldest visible job for workerID.
func (q *JobQueueService) Lease(ctx context.Context, workerID string) (*domain.IngestionJob, error) {
	if workerID == "" {
		return nil, fmt.Errorf("%w: worker id is required", domain.ErrInvalidInput)
	}
	return q.jobs.Lease(ctx, workerID, q.cfg.LeaseTimeout)
}

// Ack marks a job completed. Idempotent.
func (q *JobQueueService) Ack(ctx context.Context, jobID string) error {
	return q.jobs.Ack(ctx, jobID)
}

// Fail records a processing failure. Retryable causes re-pend the job
// with exponential backoff; exhausted attempts and malformed input are
// terminal, relocating the source artifact for inspection.
func (q *JobQueueService) Fail(ctx context.Context, jobID string, cause error) error {
	if cause == nil {
		cause = errors.New("unspecified failure")
	}

	job, err := q.jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is %s", domain.ErrLeaseNotHeld, jobID, job.Status)
	}

	// The attempt being reported is one past the recorded count; the
	// store increments on Retry and MarkFailed.
	attempt := job.Attempts + 1

	// Malformed input never succeeds on retry.
	if errors.Is(cause, domain.ErrMalformedInput) {
		return q.failTerminally(ctx, job, cause.Error())
	}

	if attempt >= q.cfg.MaxAttempts {
		msg := fmt.Sprintf("%v: %v", domain.ErrAttemptsExhausted, cause)
		return q.failTerminally(ctx, job, msg)
	}

	delay := q.backoff(attempt)
	if err := q.jobs.Retry(ctx, jobID, cause.Error(), delay); err != nil {
		return fmt.Errorf("retry job: %w", err)
	}
	logger.Debug("Job %s attempt %d failed, retrying in %s: %v", jobID, attempt, delay, cause)
	return nil
}

// Backlog reports queue depth for the organisation (all organisations
// when orgID is empty).
func (q *JobQueueService) Backlog(ctx context.Context, orgID string) (*domain.BacklogCounts, error) {
	counts, err := q.jobs.Backlog(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("backlog: %w", err)
	}
	if q.cfg.AgeAlertThreshold > 0 && counts.OldestPendingAge > q.cfg.AgeAlertThreshold {
		counts.AgeThresholdExceeded = true
	}
	return counts, nil
}

// backoff returns the visibility delay after the given failed attempt:
// base doubled per attempt, capped.
func (q *JobQueueService) backoff(attempt int) time.Duration {
	delay := q.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.cfg.BackoffCap {
			return q.cfg.BackoffCap
		}
	}
	if delay > q.cfg.BackoffCap {
		return q.cfg.BackoffCap
	}
	return delay
}

func (q *JobQueueService) failTerminally(ctx context.Context, job *domain.IngestionJob, cause string) error {
	if err := q.jobs.MarkFailed(ctx, job.ID, cause); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	logger.Warn("Job %s failed terminally: %s", job.ID, cause)

	if q.artifacts == nil {
		return nil
	}
	moved, err := q.artifacts.Quarantine(ctx, job.SourceRef, cause)
	if err != nil {
		// The job is already failed; losing the relocation is not worth
		// surfacing as a queue error.
		logger.Warn("Failed to quarantine %s: %v", job.SourceRef, err)
		return nil
	}
	logger.Info("Quarantined %s -> %s", job.SourceRef, moved)
	return nil
}
