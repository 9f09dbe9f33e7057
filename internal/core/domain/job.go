package domain

import "time"

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	// JobPending means the job is visible and waiting for a worker.
	JobPending JobStatus = "pending"
	// JobLeased means a worker holds a time-bounded exclusive claim.
	JobLeased JobStatus = "leased"
	// JobCompleted means the job was acknowledged after successful processing.
	JobCompleted JobStatus = "completed"
	// JobFailed means retry attempts are exhausted (or the input was
	// malformed). Terminal; the source artifact is relocated for inspection.
	JobFailed JobStatus = "failed"
)

// Terminal returns true for states a job never leaves.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// IngestionJob is one unit of ingestion work, durably queued and
// deduplicated by content checksum within an organisation.
type IngestionJob struct {
	// ID is the unique identifier for the job.
	ID string

	// OrgID is the organisation namespace. All queue operations are
	// partitioned by it; checksums only deduplicate within one org.
	OrgID string

	// Checksum is the content hash of the source file (dedup key).
	Checksum string

	// ConnectorType names the connector that enqueued the job.
	ConnectorType ConnectorType

	// SourceRef locates the source file (path or URI).
	SourceRef string

	// Format is the declared source format.
	Format SourceFormat

	// Status is the current lifecycle state.
	Status JobStatus

	// Attempts counts processing attempts so far.
	Attempts int

	// EnqueuedAt is when the job was created.
	EnqueuedAt time.Time

	// LeasedBy identifies the worker holding the current lease, if any.
	LeasedBy string

	// LeaseExpiry is when the current lease lapses. A leased job past this
	// instant is visible to other workers again.
	LeaseExpiry time.Time

	// NotBefore delays visibility after a retry (backoff). Zero means
	// immediately visible.
	NotBefore time.Time

	// LastError is the most recent failure cause, recorded verbatim.
	LastError string

	// UpdatedAt is when the job last changed state.
	UpdatedAt time.Time
}

// LeaseExpired reports whether the job's lease has lapsed at now.
// Only meaningful for leased jobs.
func (j *IngestionJob) LeaseExpired(now time.Time) bool {
	return j.Status == JobLeased && now.After(j.LeaseExpiry)
}

// Leasable reports whether a worker may claim the job at now: either
// pending and past any backoff delay, or leased with an expired lease.
func (j *IngestionJob) Leasable(now time.Time) bool {
	switch j.Status {
	case JobPending:
		return !now.Before(j.NotBefore)
	case JobLeased:
		return j.LeaseExpired(now)
	default:
		return false
	}
}

// BacklogCounts is a point-in-time view of the queue, exposed for
// operator alerting.
type BacklogCounts struct {
	// Pending, Leased, Completed and Failed count jobs per state.
	Pending   int
	Leased    int
	Completed int
	Failed    int

	// OldestPendingAge is the age of the oldest pending job. Zero when the
	// queue has no pending jobs.
	OldestPendingAge time.Duration

	// AgeThresholdExceeded is set when OldestPendingAge passes the
	// configured alerting threshold.
	AgeThresholdExceeded bool
}
