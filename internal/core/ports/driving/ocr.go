package driving

import (
	"context"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// OCRCoordinator arbitrates between two OCR engines and routes uncertain
// output to manual review.
type OCRCoordinator interface {
	// Extract obtains text for a segment: primary engine first, secondary
	// on call failure. Both failing returns a result with Failed set and
	// an error wrapping domain.ErrAllEnginesFailed.
	Extract(ctx context.Context, image []byte, docType domain.DocumentType) (*domain.OCRResult, error)

	// Coordinate extracts text and compares confidence against the
	// per-type threshold, persisting a review item when below it. The
	// provisional text is returned either way so the pipeline is not
	// blocked; routed reports whether review was created.
	Coordinate(ctx context.Context, segment domain.ImageSegment, documentID string, docType domain.DocumentType) (result *domain.OCRResult, routed bool, err error)

	// ProcessDocument coordinates every segment in order and aggregates
	// running statistics. The returned error is non-nil when any segment
	// failed on both engines.
	ProcessDocument(ctx context.Context, segments []domain.ImageSegment, documentID string, docType domain.DocumentType) ([]domain.OCRResult, *domain.OCRStats, error)

	// Stats returns the coordinator's lifetime statistics.
	Stats() domain.OCRStats
}
