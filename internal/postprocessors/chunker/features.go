package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// stopwords is a compact English function-word set; the ratio is a
// descriptive signal, not a language model.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "had": {}, "has": {},
	"have": {}, "he": {}, "her": {}, "his": {}, "i": {}, "in": {}, "is": {},
	"it": {}, "its": {}, "not": {}, "of": {}, "on": {}, "or": {}, "she": {},
	"that": {}, "the": {}, "their": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "we": {}, "were": {}, "which": {}, "will": {}, "with": {},
	"you": {},
}

var suffixes = []string{"ing", "edly", "ly", "ed", "ies", "es", "s"}

// extractFeatures computes the descriptive language summary for one
// chunk. Never alters chunk boundaries.
func extractFeatures(tokens []driven.Token, content string) domain.LanguageFeatures {
	var features domain.LanguageFeatures

	words := 0
	stops := 0
	runeTotal := 0
	stems := make(map[string]struct{})

	for _, token := range tokens {
		text := strings.TrimSpace(token.Text)
		if text == "" || !hasLetter(text) {
			continue
		}
		words++
		runeTotal += utf8.RuneCountInString(text)

		lower := strings.ToLower(text)
		if _, ok := stopwords[lower]; ok {
			stops++
		}
		stems[stem(lower)] = struct{}{}
	}

	if words > 0 {
		features.StopwordRatio = float64(stops) / float64(words)
		features.MeanTokenLength = float64(runeTotal) / float64(words)
		features.LexicalDiversity = float64(len(stems)) / float64(words)
	}
	features.HasDiacritics = hasDiacritics(content)
	return features
}

// stem strips a single common suffix. Crude, but stable: identical
// words always map to the same stem, which is all the diversity ratio
// needs.
func stem(word string) string {
	for _, suffix := range suffixes {
		if strings.HasSuffix(word, suffix) && len(word) > len(suffix)+2 {
			return strings.TrimSuffix(word, suffix)
		}
	}
	return word
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// hasDiacritics reports accented letters or combining marks anywhere in
// the text.
func hasDiacritics(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			return true
		}
		if r >= 0x00C0 && r <= 0x024F && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
