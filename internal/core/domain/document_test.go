package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_ResolveImage(t *testing.T) {
	img := ImageSegment{Index: 0, Page: 1, NeedsOCR: true}
	doc := Document{
		ID:      "doc-1",
		Content: "Before. " + img.Placeholder() + " After.",
		Images:  []ImageSegment{img},
	}

	require.True(t, doc.NeedsOCR())

	doc.ResolveImage(0, "recognised text")

	assert.Equal(t, "Before. recognised text After.", doc.Content)
	assert.False(t, doc.NeedsOCR())
}

func TestDocument_ResolveImage_UnknownIndex(t *testing.T) {
	doc := Document{Content: "unchanged", Images: []ImageSegment{{Index: 0, NeedsOCR: true}}}
	doc.ResolveImage(7, "text")
	assert.Equal(t, "unchanged", doc.Content)
	assert.True(t, doc.NeedsOCR())
}

func TestChunkConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, DefaultChunkConfig().Validate())
	})

	t.Run("min above target", func(t *testing.T) {
		cfg := ChunkConfig{MinTokens: 500, MaxTokens: 600, TargetTokens: 400, OverlapTokens: 50}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})

	t.Run("target above max", func(t *testing.T) {
		cfg := ChunkConfig{MinTokens: 100, MaxTokens: 300, TargetTokens: 400, OverlapTokens: 50}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})

	t.Run("overlap at min", func(t *testing.T) {
		cfg := ChunkConfig{MinTokens: 100, MaxTokens: 300, TargetTokens: 200, OverlapTokens: 100}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidInput)
	})

	t.Run("zero bounds", func(t *testing.T) {
		assert.ErrorIs(t, ChunkConfig{}.Validate(), ErrInvalidInput)
	})
}

func TestChunkID_Deterministic(t *testing.T) {
	assert.Equal(t, ChunkID("doc-1", 3), ChunkID("doc-1", 3))
	assert.NotEqual(t, ChunkID("doc-1", 3), ChunkID("doc-1", 4))
	assert.Equal(t, "doc-1:0003", ChunkID("doc-1", 3))
}
