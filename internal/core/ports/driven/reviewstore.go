package driven

import (
	"context"
	"time"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// ReviewFilter narrows review queue listings. Zero fields match all.
type ReviewFilter struct {
	// Status filters by review status.
	Status domain.ReviewStatus

	// Priority filters by exact priority.
	Priority domain.ReviewPriority

	// DocType filters by document-type hint.
	DocType domain.DocumentType

	// Reviewer filters by the reviewer recorded on the item.
	Reviewer string

	// Since bounds CreatedAt from below. Zero means unbounded.
	Since time.Time

	// Limit caps the number of returned items. Zero means no cap.
	Limit int
}

// ReviewStore persists the manual review backlog. Status transitions
// are serialised per item; items are never deleted (kept for audit and
// training).
type ReviewStore interface {
	// Create stores a new review item. The composite key
	// (document, page, segment) is unique; re-routing the same segment
	// is a no-op returning the existing item's ID.
	Create(ctx context.Context, item *domain.ReviewItem) (string, error)

	// Get retrieves an item by ID.
	Get(ctx context.Context, id string) (*domain.ReviewItem, error)

	// List returns items matching the filter, ordered by priority
	// descending then confidence ascending (worst first).
	List(ctx context.Context, filter ReviewFilter) ([]domain.ReviewItem, error)

	// Update persists a status change. Implementations must reject
	// transitions the domain state machine forbids with
	// domain.ErrInvalidTransition, atomically with the current stored
	// status (guard the write, not a prior read).
	Update(ctx context.Context, item *domain.ReviewItem) error

	// Stats aggregates counts, confidence, approval rate and turnaround
	// for items matching the filter.
	Stats(ctx context.Context, filter ReviewFilter) (*domain.ReviewStats, error)
}
