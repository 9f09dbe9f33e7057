package driven

import (
	"context"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// DocumentStore persists documents and their chunks. Save is a
// checksum-keyed upsert performed atomically, so the bounded
// duplicate-processing window after a lease expiry cannot produce
// duplicate records.
type DocumentStore interface {
	// Save stores a document and its full chunk sequence in one write.
	// A document with the same (org, checksum) is replaced wholesale.
	Save(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves a document's chunks ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

// ArtifactStore relocates source artifacts of terminally failed jobs to
// a failure area for operator inspection.
type ArtifactStore interface {
	// Quarantine moves the artifact at sourceRef into the failure area
	// and returns its new location.
	Quarantine(ctx context.Context, sourceRef string, cause string) (string, error)
}
