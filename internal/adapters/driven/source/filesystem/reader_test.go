package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("source bytes"), 0o644))

	content, err := New().Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("source bytes"), content)
}

func TestReadMissingFile(t *testing.T) {
	_, err := New().Read(context.Background(), filepath.Join(t.TempDir(), "ghost.txt"))
	require.ErrorIs(t, err, domain.ErrNotFound)
}
