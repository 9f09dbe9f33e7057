package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// jobStore implements driven.JobStore.
type jobStore struct {
	store *Store
}

var _ driven.JobStore = (*jobStore)(nil)

const jobColumns = `id, org_id, checksum, connector_type, source_ref, format,
	status, attempts, enqueued_at, leased_by, lease_expiry, not_before,
	last_error, updated_at`

// leasablePredicate selects jobs a worker may claim: pending past any
// backoff delay, or leased with an expired lease. Arguments: now, now.
const leasablePredicate = `(
	(status = 'pending' AND (not_before IS NULL OR not_before <= ?))
	OR (status = 'leased' AND lease_expiry <= ?)
)`

// Create stores a new job. A UNIQUE violation on the partial
// (org, checksum) index maps to domain.ErrDuplicate.
func (s *jobStore) Create(ctx context.Context, job *domain.IngestionJob) error {
	if job == nil || job.ID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.OrgID, job.Checksum, string(job.ConnectorType), job.SourceRef,
		string(job.Format), string(job.Status), job.Attempts,
		formatTime(job.EnqueuedAt), job.LeasedBy,
		formatNullableTime(job.LeaseExpiry), formatNullableTime(job.NotBefore),
		job.LastError, formatTime(job.UpdatedAt))

	if isUniqueViolation(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID.
func (s *jobStore) Get(ctx context.Context, id string) (*domain.IngestionJob, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	return scanJob(row)
}

// FindActiveByChecksum returns the non-failed job holding the checksum
// within the organisation.
func (s *jobStore) FindActiveByChecksum(ctx context.Context, orgID, checksum string) (*domain.IngestionJob, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM jobs
		WHERE org_id = ? AND checksum = ? AND status != 'failed'
	`, orgID, checksum)
	return scanJob(row)
}

// Lease atomically claims the oldest leasable job. The claim is a
// single UPDATE with a nested selection, so two workers can never both
// win the same job: SQLite serialises writers and the predicate is
// re-checked on the claimed row.
func (s *jobStore) Lease(ctx context.Context, workerID string, timeout time.Duration) (*domain.IngestionJob, error) {
	now := s.store.now()

	row := s.store.db.QueryRowContext(ctx, `
		UPDATE jobs SET
			status = 'leased',
			leased_by = ?,
			lease_expiry = ?,
			updated_at = ?
		WHERE id = (
			SELECT id FROM jobs WHERE `+leasablePredicate+`
			ORDER BY enqueued_at ASC LIMIT 1
		)
		AND `+leasablePredicate+`
		RETURNING `+jobColumns,
		workerID, formatTime(now.Add(timeout)), formatTime(now),
		formatTime(now), formatTime(now), formatTime(now), formatTime(now))

	job, err := scanJob(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoJobAvailable
	}
	return job, err
}

// Ack marks a job completed. Idempotent when already completed.
func (s *jobStore) Ack(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE jobs SET status = 'completed', leased_by = '', updated_at = ?
		WHERE id = ? AND status != 'failed'
	`, formatTime(s.store.now()), id)
	if err != nil {
		return fmt.Errorf("acking job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acking job: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Retry returns a leased job to pending with a visibility delay.
func (s *jobStore) Retry(ctx context.Context, id string, cause string, delay time.Duration) error {
	now := s.store.now()
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE jobs SET
			status = 'pending',
			attempts = attempts + 1,
			leased_by = '',
			lease_expiry = NULL,
			not_before = ?,
			last_error = ?,
			updated_at = ?
		WHERE id = ? AND status NOT IN ('completed', 'failed')
	`, formatTime(now.Add(delay)), cause, formatTime(now), id)
	if err != nil {
		return fmt.Errorf("retrying job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retrying job: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkFailed moves a job to the terminal failed state.
func (s *jobStore) MarkFailed(ctx context.Context, id string, cause string) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE jobs SET
			status = 'failed',
			attempts = attempts + 1,
			leased_by = '',
			last_error = ?,
			updated_at = ?
		WHERE id = ?
	`, cause, formatTime(s.store.now()), id)
	if err != nil {
		return fmt.Errorf("failing job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failing job: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Backlog returns per-state counts and the oldest pending age.
func (s *jobStore) Backlog(ctx context.Context, orgID string) (*domain.BacklogCounts, error) {
	// Empty orgID aggregates across all organisations.
	args := []any{}
	orgClause := ""
	if orgID != "" {
		orgClause = " WHERE org_id = ?"
		args = append(args, orgID)
	}

	rows, err := s.store.db.QueryContext(ctx,
		`SELECT status, COUNT(*), MIN(enqueued_at) FROM jobs`+orgClause+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying backlog: %w", err)
	}
	defer rows.Close()

	counts := &domain.BacklogCounts{}
	now := s.store.now()

	for rows.Next() {
		var status string
		var count int
		var oldest sql.NullString
		if err := rows.Scan(&status, &count, &oldest); err != nil {
			return nil, fmt.Errorf("scanning backlog row: %w", err)
		}

		switch domain.JobStatus(status) {
		case domain.JobPending:
			counts.Pending = count
			oldestAt, err := parseNullableTime(oldest)
			if err != nil {
				return nil, fmt.Errorf("parsing oldest pending time: %w", err)
			}
			if !oldestAt.IsZero() {
				counts.OldestPendingAge = now.Sub(oldestAt)
			}
		case domain.JobLeased:
			counts.Leased = count
		case domain.JobCompleted:
			counts.Completed = count
		case domain.JobFailed:
			counts.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating backlog rows: %w", err)
	}

	return counts, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.IngestionJob, error) {
	var job domain.IngestionJob
	var connectorType, format, status, enqueuedAt, updatedAt string
	var leaseExpiry, notBefore sql.NullString

	err := row.Scan(&job.ID, &job.OrgID, &job.Checksum, &connectorType,
		&job.SourceRef, &format, &status, &job.Attempts, &enqueuedAt,
		&job.LeasedBy, &leaseExpiry, &notBefore, &job.LastError, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning job: %w", err)
	}

	job.ConnectorType = domain.ConnectorType(connectorType)
	job.Format = domain.SourceFormat(format)
	job.Status = domain.JobStatus(status)

	if job.EnqueuedAt, err = parseTime(enqueuedAt); err != nil {
		return nil, fmt.Errorf("parsing enqueued_at: %w", err)
	}
	if job.LeaseExpiry, err = parseNullableTime(leaseExpiry); err != nil {
		return nil, fmt.Errorf("parsing lease_expiry: %w", err)
	}
	if job.NotBefore, err = parseNullableTime(notBefore); err != nil {
		return nil, fmt.Errorf("parsing not_before: %w", err)
	}
	if job.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &job, nil
}
