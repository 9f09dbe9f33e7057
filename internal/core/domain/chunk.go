package domain

import "fmt"

// Chunk is a token-bounded, overlapping segment of one document's text.
// Chunks are created in a single pass by the chunker and immutable
// afterwards; Index is a strict sequence within the document.
type Chunk struct {
	// ID is deterministic (document id + index) so re-chunking the same
	// document produces an identical sequence.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the ordinal position within the document.
	Index int

	// Content is the text content of this chunk.
	Content string

	// TokenCount is the number of tokens in Content.
	TokenCount int

	// StartRune and EndRune are the chunk's span in the document text,
	// measured in runes. Consecutive chunks overlap by the configured
	// overlap length.
	StartRune int
	EndRune   int

	// SectionTitle, SectionLevel and Page locate the nearest enclosing
	// heading, so a chunk can always be traced back to its section.
	SectionTitle string
	SectionLevel int
	Page         int

	// IsTable, IsList and IsCode are non-exclusive content-type flags
	// produced by independent heuristics.
	IsTable bool
	IsList  bool
	IsCode  bool

	// Features is a descriptive language summary. It never alters chunk
	// boundaries.
	Features LanguageFeatures
}

// ChunkID derives the deterministic chunk identifier.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s:%04d", documentID, index)
}

// LanguageFeatures summarises the language characteristics of a chunk.
type LanguageFeatures struct {
	// StopwordRatio is the fraction of tokens that are stopwords.
	StopwordRatio float64

	// HasDiacritics is true when the text contains accented characters.
	HasDiacritics bool

	// MeanTokenLength is the average token length in runes.
	MeanTokenLength float64

	// LexicalDiversity is the unique-stem ratio over all tokens.
	LexicalDiversity float64
}

// ChunkConfig bounds the sliding-window segmentation.
type ChunkConfig struct {
	// MinTokens is the lower bound for every chunk except the last chunk
	// of a document shorter than MinTokens.
	MinTokens int

	// MaxTokens is the hard upper bound for every chunk.
	MaxTokens int

	// TargetTokens is the preferred chunk size.
	TargetTokens int

	// OverlapTokens is the length of the shared region between
	// consecutive chunks, and the lookback distance for sentence
	// boundary adjustment.
	OverlapTokens int

	// HeadingSplitLevel pre-splits the document at headings at or below
	// this nesting level before windowing. Zero disables pre-splitting.
	HeadingSplitLevel int
}

// DefaultChunkConfig returns the standard chunking configuration.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MinTokens:         300,
		MaxTokens:         500,
		TargetTokens:      400,
		OverlapTokens:     50,
		HeadingSplitLevel: 2,
	}
}

// Validate checks the configuration for internal consistency.
func (c ChunkConfig) Validate() error {
	if c.MinTokens <= 0 || c.MaxTokens <= 0 || c.TargetTokens <= 0 {
		return fmt.Errorf("%w: token bounds must be positive", ErrInvalidInput)
	}
	if c.MinTokens > c.TargetTokens || c.TargetTokens > c.MaxTokens {
		return fmt.Errorf("%w: need min <= target <= max tokens", ErrInvalidInput)
	}
	if c.OverlapTokens < 0 || c.OverlapTokens >= c.MinTokens {
		return fmt.Errorf("%w: overlap must be non-negative and below min tokens", ErrInvalidInput)
	}
	return nil
}
