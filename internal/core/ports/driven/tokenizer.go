package driven

// Token is one linguistic token with its position in the source text.
type Token struct {
	// Text is the token's surface form.
	Text string

	// StartRune and EndRune are the token's span in the source text,
	// measured in runes.
	StartRune int
	EndRune   int

	// SentenceEnd marks the final token of a sentence. The chunker's
	// boundary adjustment searches backward for these.
	SentenceEnd bool
}

// Tokenizer converts text into an ordered token sequence with sentence
// boundary markers. The underlying model (BPE vocabulary, NLP pipeline)
// is an external collaborator behind this interface.
type Tokenizer interface {
	// Tokenize splits text into tokens. Empty text yields no tokens.
	Tokenize(text string) ([]Token, error)
}
