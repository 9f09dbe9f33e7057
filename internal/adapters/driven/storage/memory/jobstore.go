package memory

import (
	"context"
	"sync"
	"time"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure JobStore implements the interface.
var _ driven.JobStore = (*JobStore)(nil)

// JobStore is an in-memory implementation of driven.JobStore. The store
// mutex serialises lease transitions, so concurrent Lease callers can
// never claim the same job for overlapping windows.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*domain.IngestionJob

	// now is swappable for time-based tests.
	now func() time.Time
}

// NewJobStore creates a new in-memory job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*domain.IngestionJob),
		now:  time.Now,
	}
}

// SetClock replaces the store's time source. Test use only.
func (s *JobStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Create stores a new job.
func (s *JobStore) Create(_ context.Context, job *domain.IngestionJob) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

// Get retrieves a job by ID.
func (s *JobStore) Get(_ context.Context, id string) (*domain.IngestionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

// FindActiveByChecksum returns the non-failed job holding the checksum
// within the organisation.
func (s *JobStore) FindActiveByChecksum(_ context.Context, orgID, checksum string) (*domain.IngestionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if job.OrgID == orgID && job.Checksum == checksum && job.Status != domain.JobFailed {
			cp := *job
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Lease atomically claims the oldest leasable job.
func (s *JobStore) Lease(_ context.Context, workerID string, timeout time.Duration) (*domain.IngestionJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	var oldest *domain.IngestionJob
	for _, job := range s.jobs {
		if !job.Leasable(now) {
			continue
		}
		if oldest == nil || job.EnqueuedAt.Before(oldest.EnqueuedAt) {
			oldest = job
		}
	}
	if oldest == nil {
		return nil, domain.ErrNoJobAvailable
	}

	oldest.Status = domain.JobLeased
	oldest.LeasedBy = workerID
	oldest.LeaseExpiry = now.Add(timeout)
	oldest.UpdatedAt = now

	cp := *oldest
	return &cp, nil
}

// Ack marks a job completed. Idempotent when already completed.
func (s *JobStore) Ack(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status == domain.JobFailed {
		// Failed jobs stay failed; matches the durable store, which
		// excludes them from the update and reports no match.
		return domain.ErrNotFound
	}
	if job.Status == domain.JobCompleted {
		return nil
	}

	job.Status = domain.JobCompleted
	job.LeasedBy = ""
	job.UpdatedAt = s.now()
	return nil
}

// Retry returns a leased job to pending with a visibility delay.
func (s *JobStore) Retry(_ context.Context, id string, cause string, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}

	now := s.now()
	job.Status = domain.JobPending
	job.Attempts++
	job.LeasedBy = ""
	job.LeaseExpiry = time.Time{}
	job.NotBefore = now.Add(delay)
	job.LastError = cause
	job.UpdatedAt = now
	return nil
}

// MarkFailed moves a job to the terminal failed state.
func (s *JobStore) MarkFailed(_ context.Context, id string, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}

	job.Status = domain.JobFailed
	job.Attempts++
	job.LeasedBy = ""
	job.LastError = cause
	job.UpdatedAt = s.now()
	return nil
}

// Backlog returns per-state counts and the oldest pending age.
func (s *JobStore) Backlog(_ context.Context, orgID string) (*domain.BacklogCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counts := &domain.BacklogCounts{}
	var oldestPending time.Time

	for _, job := range s.jobs {
		if orgID != "" && job.OrgID != orgID {
			continue
		}
		switch job.Status {
		case domain.JobPending:
			counts.Pending++
			if oldestPending.IsZero() || job.EnqueuedAt.Before(oldestPending) {
				oldestPending = job.EnqueuedAt
			}
		case domain.JobLeased:
			counts.Leased++
		case domain.JobCompleted:
			counts.Completed++
		case domain.JobFailed:
			counts.Failed++
		}
	}

	if !oldestPending.IsZero() {
		counts.OldestPendingAge = now.Sub(oldestPending)
	}
	return counts, nil
}
