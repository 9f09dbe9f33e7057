// Package tiktoken adapts a BPE token encoder to the tokenizer port.
// Token rune spans are recovered by decoding token-by-token, merging
// the rare tokens that split a multi-byte character.
package tiktoken

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// DefaultEncoding is the BPE vocabulary used when none is configured.
const DefaultEncoding = "cl100k_base"

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// Tokenizer tokenises text with a fixed BPE encoding. Safe for use by
// concurrent callers; the underlying encoder is read-only after load.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New loads the named encoding. Empty name selects DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// Tokenize splits text into BPE tokens with rune spans and sentence
// boundary markers.
func (t *Tokenizer) Tokenize(text string) ([]driven.Token, error) {
	if text == "" {
		return nil, nil
	}

	ids := t.enc.Encode(text, nil, nil)
	tokens := make([]driven.Token, 0, len(ids))

	runePos := 0
	var pending strings.Builder
	for _, id := range ids {
		pending.WriteString(t.enc.Decode([]int{id}))

		// A token may end mid-character; hold it until the sequence
		// becomes valid UTF-8 again.
		piece := pending.String()
		if !utf8.ValidString(piece) {
			continue
		}
		pending.Reset()

		runeLen := utf8.RuneCountInString(piece)
		tokens = append(tokens, driven.Token{
			Text:        piece,
			StartRune:   runePos,
			EndRune:     runePos + runeLen,
			SentenceEnd: endsSentence(piece),
		})
		runePos += runeLen
	}
	return tokens, nil
}

// endsSentence reports terminal punctuation or a paragraph break at the
// end of a token, ignoring trailing quotes and brackets.
func endsSentence(piece string) bool {
	trimmed := strings.TrimRight(piece, " \t\"')]»”’")
	if strings.HasSuffix(piece, "\n") {
		return true
	}
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?")
}
