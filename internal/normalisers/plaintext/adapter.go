package plaintext

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.FormatAdapter = (*Adapter)(nil)

// Adapter handles plain UTF-8 text. No structure is extracted; the
// chunker windows the content as a single section.
type Adapter struct{}

// New creates a new plaintext adapter.
func New() *Adapter {
	return &Adapter{}
}

// Format returns the source format this adapter handles.
func (a *Adapter) Format() domain.SourceFormat {
	return domain.FormatPlaintext
}

// Parse validates the bytes as UTF-8 text and wraps them in a document.
// Line endings are normalised to LF.
func (a *Adapter) Parse(_ context.Context, orgID, checksum string, content []byte) (*domain.Document, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: plaintext source is not valid UTF-8", domain.ErrMalformedInput)
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	text = strings.TrimRight(text, "\n")

	return &domain.Document{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Checksum:  checksum,
		Format:    domain.FormatPlaintext,
		Content:   text,
		CreatedAt: time.Now(),
	}, nil
}
