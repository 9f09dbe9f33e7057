package memory

import (
	"context"
	"sync"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Save upserts by (org, checksum), mirroring the durable store's
// idempotency under duplicate processing.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
	// byChecksum maps org+"/"+checksum to the holding document ID.
	byChecksum map[string]string
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents:  make(map[string]domain.Document),
		chunks:     make(map[string][]domain.Chunk),
		byChecksum: make(map[string]string),
	}
}

// Save stores a document and its full chunk sequence in one write.
func (s *DocumentStore) Save(_ context.Context, doc *domain.Document, chunks []domain.Chunk) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := doc.OrgID + "/" + doc.Checksum
	if prior, ok := s.byChecksum[key]; ok && prior != doc.ID {
		delete(s.documents, prior)
		delete(s.chunks, prior)
	}

	s.documents[doc.ID] = *doc
	s.chunks[doc.ID] = append([]domain.Chunk(nil), chunks...)
	s.byChecksum[key] = doc.ID
	return nil
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunks retrieves a document's chunks ordered by index.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.chunks[documentID]
	if !ok {
		return nil, nil
	}
	return append([]domain.Chunk(nil), chunks...), nil
}
