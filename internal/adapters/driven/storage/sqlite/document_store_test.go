package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

func newTestDocument(id, org, checksum string) *domain.Document {
	return &domain.Document{
		ID:       id,
		OrgID:    org,
		Checksum: checksum,
		Format:   domain.FormatMarkdown,
		Content:  "# Title\n\nBody text.",
		Sections: []domain.Section{{Title: "Title", Level: 1, Page: 1}},
		Images:   []domain.ImageSegment{{Index: 0, Page: 1, Data: []byte{0xFF}, NeedsOCR: false}},
		CreatedAt: time.Now(),
	}
}

func newTestChunks(docID string, n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(docID, i),
			DocumentID: docID,
			Index:      i,
			Content:    "chunk content",
			TokenCount: 10,
			StartRune:  i * 8,
			EndRune:    i*8 + 13,
			Features:   domain.LanguageFeatures{StopwordRatio: 0.3, MeanTokenLength: 4.2},
		}
	}
	return chunks
}

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	docs := store.DocumentStore()
	ctx := context.Background()

	doc := newTestDocument("d-1", "org", "sum")
	require.NoError(t, docs.Save(ctx, doc, newTestChunks("d-1", 3)))

	got, err := docs.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Content, got.Content)
	require.Len(t, got.Sections, 1)
	assert.Equal(t, "Title", got.Sections[0].Title)

	// Image bytes are not persisted, placement metadata is.
	require.Len(t, got.Images, 1)
	assert.Nil(t, got.Images[0].Data)
	assert.Equal(t, 1, got.Images[0].Page)

	chunks, err := docs.GetChunks(ctx, "d-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 2, chunks[2].Index)
	assert.InDelta(t, 0.3, chunks[0].Features.StopwordRatio, 1e-9)
}

func TestDocumentStore_SaveReplacesChunksWholesale(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	docs := store.DocumentStore()
	ctx := context.Background()

	doc := newTestDocument("d-1", "org", "sum")
	require.NoError(t, docs.Save(ctx, doc, newTestChunks("d-1", 5)))
	require.NoError(t, docs.Save(ctx, doc, newTestChunks("d-1", 2)))

	chunks, err := docs.GetChunks(ctx, "d-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

// Duplicate processing of the same content (two workers, one expired
// lease) must collapse into a single stored document.
func TestDocumentStore_SaveUpsertsByChecksum(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	docs := store.DocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.Save(ctx, newTestDocument("d-1", "org", "sum"), newTestChunks("d-1", 2)))
	require.NoError(t, docs.Save(ctx, newTestDocument("d-2", "org", "sum"), newTestChunks("d-2", 2)))

	_, err := docs.Get(ctx, "d-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Displaced document's chunks go with it.
	chunks, err := docs.GetChunks(ctx, "d-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = docs.Get(ctx, "d-2")
	assert.NoError(t, err)
}
