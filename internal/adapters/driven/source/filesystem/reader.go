// Package filesystem reads source artifacts referenced by local path.
package filesystem

import (
	"context"
	"fmt"
	"os"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.SourceReader = (*Reader)(nil)

// Reader resolves source references as filesystem paths.
type Reader struct{}

// New creates a filesystem source reader.
func New() *Reader {
	return &Reader{}
}

// Read returns the file's bytes. A missing file maps to ErrNotFound so
// the pipeline can distinguish a vanished artifact from an IO fault.
func (r *Reader) Read(_ context.Context, sourceRef string) ([]byte, error) {
	content, err := os.ReadFile(sourceRef)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: source %s", domain.ErrNotFound, sourceRef)
		}
		return nil, fmt.Errorf("read source %s: %w", sourceRef, err)
	}
	return content, nil
}
