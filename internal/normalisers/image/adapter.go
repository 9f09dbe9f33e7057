package image

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.FormatAdapter = (*Adapter)(nil)

// Adapter handles scanned pages and photos. The document carries a
// single image segment flagged for OCR; its content is the segment
// placeholder until resolution substitutes the recognised text.
type Adapter struct{}

// New creates a new image adapter.
func New() *Adapter {
	return &Adapter{}
}

// Format returns the source format this adapter handles.
func (a *Adapter) Format() domain.SourceFormat {
	return domain.FormatImage
}

// Parse wraps the raw bytes in a single needs-OCR segment. Bytes that
// are not a recognised image container are malformed input.
func (a *Adapter) Parse(_ context.Context, orgID, checksum string, content []byte) (*domain.Document, error) {
	if !IsImage(content) {
		return nil, fmt.Errorf("%w: bytes are not a supported image container", domain.ErrMalformedInput)
	}

	segment := domain.ImageSegment{
		Index:    0,
		Page:     1,
		Data:     content,
		NeedsOCR: true,
	}

	return &domain.Document{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Checksum:  checksum,
		Format:    domain.FormatImage,
		Content:   segment.Placeholder(),
		Images:    []domain.ImageSegment{segment},
		CreatedAt: time.Now(),
	}, nil
}

// Magic prefixes for the supported image containers.
var magics = [][]byte{
	{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, // PNG
	{0xFF, 0xD8, 0xFF},                            // JPEG
	{'I', 'I', 0x2A, 0x00},                        // TIFF little-endian
	{'M', 'M', 0x00, 0x2A},                        // TIFF big-endian
	{'B', 'M'},                                    // BMP
}

// IsImage reports whether the bytes start with a supported image magic
// number. The registry uses it for content sniffing.
func IsImage(content []byte) bool {
	for _, magic := range magics {
		if bytes.HasPrefix(content, magic) {
			return true
		}
	}
	return false
}
