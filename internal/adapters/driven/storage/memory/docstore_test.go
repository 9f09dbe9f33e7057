package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

func TestDocumentStore_SaveAndGet(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	doc := &domain.Document{ID: "d-1", OrgID: "org", Checksum: "abc", Content: "hello"}
	chunks := []domain.Chunk{
		{ID: domain.ChunkID("d-1", 0), DocumentID: "d-1", Index: 0, Content: "hello"},
	}

	require.NoError(t, store.Save(ctx, doc, chunks))

	got, err := store.Get(ctx, "d-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Content)

	gotChunks, err := store.GetChunks(ctx, "d-1")
	require.NoError(t, err)
	require.Len(t, gotChunks, 1)
	assert.Equal(t, "d-1:0000", gotChunks[0].ID)
}

// Reprocessing the same content (duplicate lease window) must collapse
// into one stored document, not two.
func TestDocumentStore_SaveUpsertsByChecksum(t *testing.T) {
	store := NewDocumentStore()
	ctx := context.Background()

	first := &domain.Document{ID: "d-1", OrgID: "org", Checksum: "abc", Content: "v1"}
	require.NoError(t, store.Save(ctx, first, nil))

	second := &domain.Document{ID: "d-2", OrgID: "org", Checksum: "abc", Content: "v2"}
	require.NoError(t, store.Save(ctx, second, nil))

	_, err := store.Get(ctx, "d-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.Get(ctx, "d-2")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Content)
}

func TestDocumentStore_GetMissing(t *testing.T) {
	store := NewDocumentStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.GetChunks(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, chunks)
}
