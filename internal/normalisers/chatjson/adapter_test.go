package chatjson

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

func parse(t *testing.T, input string) *domain.Document {
	t.Helper()
	doc, err := New().Parse(context.Background(), "org-1", "sum-1", []byte(input))
	require.NoError(t, err)
	return doc
}

func TestParseEnvelopeExport(t *testing.T) {
	doc := parse(t, `{"messages": [
		{"speaker": "alice", "text": "hello there"},
		{"speaker": "bob", "text": "hi alice"}
	]}`)

	assert.Equal(t, domain.FormatChatJSON, doc.Format)
	assert.Equal(t, "alice: hello there\nbob: hi alice", doc.Content)
}

func TestParseBareArrayExport(t *testing.T) {
	doc := parse(t, `[{"sender": "carol", "content": "status update"}]`)

	assert.Equal(t, "carol: status update", doc.Content)
}

func TestParseAlternateFieldNames(t *testing.T) {
	doc := parse(t, `{"messages": [
		{"from": "dave", "message": "via from and message"},
		{"text": "no speaker at all"}
	]}`)

	assert.Equal(t, "dave: via from and message\nunknown: no speaker at all", doc.Content)
}

func TestParseSkipsEmptyMessages(t *testing.T) {
	doc := parse(t, `{"messages": [
		{"speaker": "alice", "text": ""},
		{"speaker": "bob", "text": "   "},
		{"speaker": "carol", "text": "kept"}
	]}`)

	assert.Equal(t, "carol: kept", doc.Content)
}

func TestParseEmptyExport(t *testing.T) {
	doc := parse(t, `{"messages": []}`)

	assert.Empty(t, doc.Content)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := New().Parse(context.Background(), "org-1", "sum-1", []byte(`{"messages": [`))
	require.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestParseObjectWithoutMessages(t *testing.T) {
	_, err := New().Parse(context.Background(), "org-1", "sum-1", []byte(`{"rows": [1, 2, 3]}`))
	require.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestParsePreservesNonASCII(t *testing.T) {
	doc := parse(t, `{"messages": [{"speaker": "señor", "text": "café ☕"}]}`)

	assert.Equal(t, "señor: café ☕", doc.Content)
}
