package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

func TestParsePlaintext(t *testing.T) {
	doc, err := New().Parse(context.Background(), "org-1", "abc123", []byte("hello world\nsecond line\n"))
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "org-1", doc.OrgID)
	assert.Equal(t, "abc123", doc.Checksum)
	assert.Equal(t, domain.FormatPlaintext, doc.Format)
	assert.Equal(t, "hello world\nsecond line", doc.Content)
	assert.Empty(t, doc.Sections)
	assert.Empty(t, doc.Images)
}

func TestParseNormalisesLineEndings(t *testing.T) {
	doc, err := New().Parse(context.Background(), "org-1", "abc123", []byte("one\r\ntwo\r\n"))
	require.NoError(t, err)

	assert.Equal(t, "one\ntwo", doc.Content)
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	_, err := New().Parse(context.Background(), "org-1", "abc123", []byte{0xFF, 0xFE, 0x00})
	require.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestParsePreservesNonASCII(t *testing.T) {
	doc, err := New().Parse(context.Background(), "org-1", "abc123", []byte("señor café ångström"))
	require.NoError(t, err)

	assert.Equal(t, "señor café ångström", doc.Content)
}
