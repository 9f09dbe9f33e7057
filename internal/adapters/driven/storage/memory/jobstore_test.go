package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

func newTestJob(id, org string, enqueued time.Time) *domain.IngestionJob {
	return &domain.IngestionJob{
		ID:            id,
		OrgID:         org,
		Checksum:      "sum-" + id,
		ConnectorType: domain.ConnectorUpload,
		SourceRef:     "/tmp/" + id,
		Format:        domain.FormatPlaintext,
		Status:        domain.JobPending,
		EnqueuedAt:    enqueued,
	}
}

func TestJobStore_LeaseOldestFirst(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Create(ctx, newTestJob("newer", "org", now)))
	require.NoError(t, store.Create(ctx, newTestJob("older", "org", now.Add(-time.Hour))))

	job, err := store.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "older", job.ID)
	assert.Equal(t, domain.JobLeased, job.Status)
	assert.Equal(t, "worker-1", job.LeasedBy)
}

func TestJobStore_LeaseEmpty(t *testing.T) {
	store := NewJobStore()

	_, err := store.Lease(context.Background(), "worker-1", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNoJobAvailable)
}

// At most one active lease may exist per job at any instant: concurrent
// lease attempts on a single job must yield it to exactly one caller.
func TestJobStore_ConcurrentLease_SingleWinner(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestJob("contested", "org", time.Now())))

	const callers = 32
	var wg sync.WaitGroup
	winners := make(chan string, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			job, err := store.Lease(ctx, fmt.Sprintf("worker-%d", n), time.Minute)
			if err == nil {
				winners <- job.ID
				return
			}
			if !errors.Is(err, domain.ErrNoJobAvailable) {
				t.Errorf("unexpected lease error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	close(winners)

	assert.Len(t, winners, 1)
}

func TestJobStore_ExpiredLeaseIsReclaimable(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Create(ctx, newTestJob("j-1", "org", now)))

	_, err := store.Lease(ctx, "worker-1", 30*time.Second)
	require.NoError(t, err)

	// Still leased: nothing to claim.
	_, err = store.Lease(ctx, "worker-2", 30*time.Second)
	assert.ErrorIs(t, err, domain.ErrNoJobAvailable)

	// After the visibility timeout the crashed worker's job reappears.
	now = now.Add(31 * time.Second)
	job, err := store.Lease(ctx, "worker-2", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, "j-1", job.ID)
	assert.Equal(t, "worker-2", job.LeasedBy)
}

func TestJobStore_AckIdempotent(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestJob("j-1", "org", time.Now())))
	_, err := store.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Ack(ctx, "j-1"))
	require.NoError(t, store.Ack(ctx, "j-1"))

	job, err := store.Get(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.Status)

	assert.ErrorIs(t, store.Ack(ctx, "missing"), domain.ErrNotFound)
}

func TestJobStore_AckRefusesFailedJob(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTestJob("j-1", "org", time.Now())))
	_, err := store.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.MarkFailed(ctx, "j-1", "attempts exhausted"))

	assert.ErrorIs(t, store.Ack(ctx, "j-1"), domain.ErrNotFound)

	job, err := store.Get(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)
}

func TestJobStore_RetryDelaysVisibility(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Create(ctx, newTestJob("j-1", "org", now)))
	_, err := store.Lease(ctx, "worker-1", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.Retry(ctx, "j-1", "engine timeout", 10*time.Second))

	job, err := store.Get(ctx, "j-1")
	require.NoError(t, err)
	assert.Equal(t, domain.JobPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, "engine timeout", job.LastError)

	// Invisible during backoff.
	_, err = store.Lease(ctx, "worker-2", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNoJobAvailable)

	now = now.Add(11 * time.Second)
	_, err = store.Lease(ctx, "worker-2", time.Minute)
	assert.NoError(t, err)
}

func TestJobStore_FindActiveByChecksum(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	job := newTestJob("j-1", "org-a", time.Now())
	require.NoError(t, store.Create(ctx, job))

	found, err := store.FindActiveByChecksum(ctx, "org-a", job.Checksum)
	require.NoError(t, err)
	assert.Equal(t, "j-1", found.ID)

	// Same checksum, different org: namespaces are isolated.
	_, err = store.FindActiveByChecksum(ctx, "org-b", job.Checksum)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A failed job no longer blocks the checksum.
	require.NoError(t, store.MarkFailed(ctx, "j-1", "gave up"))
	_, err = store.FindActiveByChecksum(ctx, "org-a", job.Checksum)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestJobStore_Backlog(t *testing.T) {
	store := NewJobStore()
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Create(ctx, newTestJob("p1", "org", now.Add(-2*time.Hour))))
	require.NoError(t, store.Create(ctx, newTestJob("p2", "org", now.Add(-time.Minute))))
	require.NoError(t, store.Create(ctx, newTestJob("other-org", "elsewhere", now)))

	// Oldest job, so the lease below claims it rather than p1.
	leased := newTestJob("l1", "org", now.Add(-3*time.Hour))
	require.NoError(t, store.Create(ctx, leased))
	_, err := store.Lease(ctx, "worker-1", time.Hour)
	require.NoError(t, err)

	counts, err := store.Backlog(ctx, "org")
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Pending)
	assert.Equal(t, 1, counts.Leased)
	assert.Equal(t, 2*time.Hour, counts.OldestPendingAge)
}
