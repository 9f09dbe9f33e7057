package driven

import (
	"context"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// OrgStore resolves organisation metadata. Backed by configuration in
// this deployment shape; the pipeline reads it through a caller-owned
// TTL cache rather than a process-wide one.
type OrgStore interface {
	// Get returns the organisation's metadata, or domain.ErrNotFound.
	Get(ctx context.Context, orgID string) (*domain.Organisation, error)
}
