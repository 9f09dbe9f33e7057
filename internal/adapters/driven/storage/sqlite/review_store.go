package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// reviewStore implements driven.ReviewStore.
type reviewStore struct {
	store *Store
}

var _ driven.ReviewStore = (*reviewStore)(nil)

const reviewColumns = `id, document_id, page, segment_index, original_text,
	confidence, engine, doc_type, priority, status, corrected_text,
	reviewer, created_at, updated_at, reviewed_at`

// Create stores a new review item. Re-routing the same segment (same
// composite key) is a no-op returning the existing item's ID.
func (s *reviewStore) Create(ctx context.Context, item *domain.ReviewItem) (string, error) {
	if item == nil {
		return "", domain.ErrInvalidInput
	}

	id := item.ID
	if id == "" {
		id = uuid.New().String()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO review_items (`+reviewColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, item.DocumentID, item.Page, item.SegmentIndex, item.OriginalText,
		item.Confidence, item.Engine, string(item.DocType), int(item.Priority),
		string(item.Status), item.CorrectedText, item.Reviewer,
		formatTime(item.CreatedAt), formatTime(item.UpdatedAt),
		formatNullableTime(item.ReviewedAt))

	if isUniqueViolation(err) {
		row := s.store.db.QueryRowContext(ctx, `
			SELECT id FROM review_items
			WHERE document_id = ? AND page = ? AND segment_index = ?
		`, item.DocumentID, item.Page, item.SegmentIndex)

		var existing string
		if scanErr := row.Scan(&existing); scanErr != nil {
			return "", fmt.Errorf("finding existing review item: %w", scanErr)
		}
		return existing, nil
	}
	if err != nil {
		return "", fmt.Errorf("inserting review item: %w", err)
	}
	return id, nil
}

// Get retrieves an item by ID.
func (s *reviewStore) Get(ctx context.Context, id string) (*domain.ReviewItem, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM review_items WHERE id = ?`, id)
	return scanReviewItem(row)
}

// List returns items matching the filter, ordered by priority
// descending then confidence ascending (worst first).
func (s *reviewStore) List(ctx context.Context, filter driven.ReviewFilter) ([]domain.ReviewItem, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_items`
	clause, args := filterClause(filter)
	query += clause + ` ORDER BY priority DESC, confidence ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying review items: %w", err)
	}
	defer rows.Close()

	var items []domain.ReviewItem //nolint:prealloc // size unknown from query
	for rows.Next() {
		item, err := scanReviewItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review items: %w", err)
	}
	return items, nil
}

// Update persists a status change. The stored status guards the write
// inside the statement itself, so a concurrent transition cannot slip
// between read and write.
func (s *reviewStore) Update(ctx context.Context, item *domain.ReviewItem) error {
	if item == nil || item.ID == "" {
		return domain.ErrInvalidInput
	}

	// Allowed prior states for the target status, per the domain
	// machine. Writes from any other stored state affect zero rows.
	var allowedFrom []string
	switch item.Status {
	case domain.ReviewPending:
		allowedFrom = []string{string(domain.ReviewInProgress), string(domain.ReviewPending)}
	case domain.ReviewInProgress:
		allowedFrom = []string{string(domain.ReviewPending), string(domain.ReviewInProgress)}
	case domain.ReviewApproved, domain.ReviewRejected, domain.ReviewSkipped:
		allowedFrom = []string{string(domain.ReviewInProgress), string(item.Status)}
	default:
		return domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, `
		UPDATE review_items SET
			status = ?,
			corrected_text = ?,
			reviewer = ?,
			updated_at = ?,
			reviewed_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, string(item.Status), item.CorrectedText, item.Reviewer,
		formatTime(item.UpdatedAt), formatNullableTime(item.ReviewedAt),
		item.ID, allowedFrom[0], allowedFrom[1])
	if err != nil {
		return fmt.Errorf("updating review item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating review item: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing item from a forbidden transition.
		if _, getErr := s.Get(ctx, item.ID); errors.Is(getErr, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: to %s", domain.ErrInvalidTransition, item.Status)
	}
	return nil
}

// Stats aggregates counts, confidence, approval rate and turnaround for
// items matching the filter.
func (s *reviewStore) Stats(ctx context.Context, filter driven.ReviewFilter) (*domain.ReviewStats, error) {
	clause, args := filterClause(filter)

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT status, confidence, created_at, reviewed_at
		FROM review_items`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("querying review stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.ReviewStats{CountsByStatus: make(map[domain.ReviewStatus]int)}

	var confidenceSum float64
	var resolved, approved, rejected int
	var turnaroundSum time.Duration

	for rows.Next() {
		var statusStr, createdStr string
		var confidence float64
		var reviewedAt sql.NullString
		if err := rows.Scan(&statusStr, &confidence, &createdStr, &reviewedAt); err != nil {
			return nil, fmt.Errorf("scanning review stats row: %w", err)
		}

		status := domain.ReviewStatus(statusStr)
		stats.CountsByStatus[status]++

		if !status.Terminal() {
			continue
		}
		resolved++
		confidenceSum += confidence

		created, err := parseTime(createdStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		reviewed, err := parseNullableTime(reviewedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing reviewed_at: %w", err)
		}
		if !reviewed.IsZero() {
			turnaroundSum += reviewed.Sub(created)
		}

		switch status {
		case domain.ReviewApproved:
			approved++
		case domain.ReviewRejected:
			rejected++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review stats rows: %w", err)
	}

	if resolved > 0 {
		stats.AverageConfidence = confidenceSum / float64(resolved)
		stats.MeanTurnaround = turnaroundSum / time.Duration(resolved)
	}
	if approved+rejected > 0 {
		stats.ApprovalRate = float64(approved) / float64(approved+rejected)
	}
	return stats, nil
}

// filterClause builds the WHERE clause for a ReviewFilter.
func filterClause(filter driven.ReviewFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != 0 {
		conditions = append(conditions, "priority = ?")
		args = append(args, int(filter.Priority))
	}
	if filter.DocType != "" {
		conditions = append(conditions, "doc_type = ?")
		args = append(args, string(filter.DocType))
	}
	if filter.Reviewer != "" {
		conditions = append(conditions, "reviewer = ?")
		args = append(args, filter.Reviewer)
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, formatTime(filter.Since))
	}

	if len(conditions) == 0 {
		return "", nil
	}

	clause := " WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		clause += " AND " + c
	}
	return clause, args
}

func scanReviewItem(row rowScanner) (*domain.ReviewItem, error) {
	var item domain.ReviewItem
	var docType, status, createdAt, updatedAt string
	var priority int
	var reviewedAt sql.NullString

	err := row.Scan(&item.ID, &item.DocumentID, &item.Page, &item.SegmentIndex,
		&item.OriginalText, &item.Confidence, &item.Engine, &docType,
		&priority, &status, &item.CorrectedText, &item.Reviewer,
		&createdAt, &updatedAt, &reviewedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning review item: %w", err)
	}

	item.DocType = domain.DocumentType(docType)
	item.Priority = domain.ReviewPriority(priority)
	item.Status = domain.ReviewStatus(status)

	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if item.ReviewedAt, err = parseNullableTime(reviewedAt); err != nil {
		return nil, fmt.Errorf("parsing reviewed_at: %w", err)
	}

	return &item, nil
}
