package driven

import (
	"context"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// FormatAdapter extracts a normalised Document from raw source bytes.
// Each adapter handles exactly one SourceFormat; the set is closed and
// resolved by detected content type through the AdapterRegistry, not by
// open-ended runtime registration.
type FormatAdapter interface {
	// Format returns the source format this adapter handles.
	Format() domain.SourceFormat

	// Parse produces a normalised document. Unparseable input returns an
	// error wrapping domain.ErrMalformedInput, which the queue treats as
	// an immediate terminal failure (retrying cannot help).
	Parse(ctx context.Context, orgID, checksum string, content []byte) (*domain.Document, error)
}

// AdapterRegistry resolves the adapter for a declared or detected
// format.
type AdapterRegistry interface {
	// Resolve returns the adapter for the format, sniffing content when
	// the declared format is unknown. Returns
	// domain.ErrUnsupportedFormat when no adapter applies.
	Resolve(format domain.SourceFormat, content []byte) (FormatAdapter, error)
}

// Chunker splits a normalised document into bounded overlapping chunks.
// Implemented by the postprocessor pipeline; a driven port so the
// orchestrator stays decoupled from the segmentation algorithm.
type Chunker interface {
	// Chunk segments the document per the configuration.
	Chunk(ctx context.Context, doc *domain.Document, cfg domain.ChunkConfig) ([]domain.Chunk, error)
}
