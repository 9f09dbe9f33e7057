package tiktoken

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := New("")
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	return tok
}

func TestTokenize_SpansReconstructText(t *testing.T) {
	tok := newTokenizer(t)
	text := "The quick brown fox jumps over the lazy dog. A second sentence follows!"

	tokens, err := tok.Tokenize(text)
	require.NoError(t, err)
	require.NotEmpty(t, tokens)

	runes := []rune(text)
	var rebuilt string
	prevEnd := 0
	for _, token := range tokens {
		assert.Equal(t, prevEnd, token.StartRune)
		assert.Equal(t, token.Text, string(runes[token.StartRune:token.EndRune]))
		rebuilt += token.Text
		prevEnd = token.EndRune
	}
	assert.Equal(t, text, rebuilt)
}

func TestTokenize_SentenceBoundaries(t *testing.T) {
	tok := newTokenizer(t)

	tokens, err := tok.Tokenize("First sentence. Second one? Third!")
	require.NoError(t, err)

	boundaries := 0
	for _, token := range tokens {
		if token.SentenceEnd {
			boundaries++
		}
	}
	assert.Equal(t, 3, boundaries)
}

func TestTokenize_MultiByteText(t *testing.T) {
	tok := newTokenizer(t)
	text := "Círculo de fuego. Über alles. Déjà vu."

	tokens, err := tok.Tokenize(text)
	require.NoError(t, err)

	runes := []rune(text)
	for _, token := range tokens {
		assert.Equal(t, token.Text, string(runes[token.StartRune:token.EndRune]))
	}
	assert.Equal(t, len(runes), tokens[len(tokens)-1].EndRune)
}

func TestTokenize_Empty(t *testing.T) {
	tok := newTokenizer(t)
	tokens, err := tok.Tokenize("")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
