package driving

import (
	"context"
	"io"
	"time"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// ReviewService is the human-facing interface over the review backlog.
// Intentionally synchronous and CRUD-like; the only subtlety is the
// deterministic priority rule applied at creation time.
type ReviewService interface {
	// List returns backlog items matching the filter, worst first
	// (priority descending, confidence ascending).
	List(ctx context.Context, filter driven.ReviewFilter) ([]domain.ReviewItem, error)

	// Take claims a pending item for a reviewer (pending_review →
	// in_review).
	Take(ctx context.Context, itemID, reviewer string) (*domain.ReviewItem, error)

	// Release abandons a claimed item back to the backlog (in_review →
	// pending_review).
	Release(ctx context.Context, itemID, reviewer string) error

	// Review resolves an item. Approve requires correctedText (which may
	// equal the original when confirmed correct); reject and skip ignore
	// it. A pending item is claimed implicitly.
	Review(ctx context.Context, itemID, reviewer string, action domain.ReviewAction, correctedText string) error

	// Stats summarises reviewer throughput over the window. Empty
	// reviewer aggregates all reviewers.
	Stats(ctx context.Context, reviewer string, window time.Duration) (*domain.ReviewStats, error)

	// Export writes reviewed items as UTF-8 JSON Lines (non-ASCII
	// preserved) for downstream training and audit.
	Export(ctx context.Context, w io.Writer, filter driven.ReviewFilter) (int, error)
}
