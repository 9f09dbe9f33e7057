package driven

import "context"

// SourceReader fetches the raw bytes a job's source ref points at.
// Filesystem paths in this deployment shape; the port keeps the
// pipeline indifferent to where connectors put content.
type SourceReader interface {
	// Read returns the source content, or domain.ErrNotFound when the
	// artifact has gone missing since enqueue.
	Read(ctx context.Context, sourceRef string) ([]byte, error)
}
