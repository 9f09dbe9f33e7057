// Package chunker splits normalised document text into token-bounded,
// overlapping, structure-aware segments.
package chunker

import (
	"context"
	"fmt"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor walks a document's token sequence with a sliding window,
// ending each chunk at the nearest sentence boundary within the overlap
// lookback. Headings pre-split the document so no chunk straddles a
// section at or below the configured level.
type Processor struct {
	tokenizer driven.Tokenizer
}

// New creates a chunker over the given tokenizer.
func New(tokenizer driven.Tokenizer) *Processor {
	return &Processor{tokenizer: tokenizer}
}

// section is one pre-split region of the document, in rune offsets.
type section struct {
	start, end int

	title string
	level int
	page  int
}

// Chunk segments the document. Empty documents yield zero chunks;
// a document (or section) shorter than the minimum yields exactly one.
func (p *Processor) Chunk(_ context.Context, doc *domain.Document, cfg domain.ChunkConfig) ([]domain.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if doc.Content == "" {
		return nil, nil
	}

	runes := []rune(doc.Content)
	tokens, err := p.tokenizer.Tokenize(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("tokenize: %w", err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	var chunks []domain.Chunk
	next := 0
	for _, sec := range splitSections(doc, len(runes), cfg.HeadingSplitLevel) {
		lo := next
		next = sectionEnd(tokens, lo, sec.end)
		chunks = p.windowSection(chunks, doc, runes, tokens[lo:next], sec, cfg)
	}
	return chunks, nil
}

// windowSection applies the sliding window to one section's tokens,
// appending to the running chunk sequence.
func (p *Processor) windowSection(chunks []domain.Chunk, doc *domain.Document, runes []rune, tokens []driven.Token, sec section, cfg domain.ChunkConfig) []domain.Chunk {
	n := len(tokens)
	if n == 0 {
		return chunks
	}

	start := 0
	for start < n {
		end := start + cfg.TargetTokens
		if end > n {
			end = n
		}

		if end < n {
			// Keep the section tail from falling below the minimum:
			// absorb it when the combined chunk fits, otherwise pull
			// this cutoff back so the tail reaches the minimum.
			tail := n - (end - cfg.OverlapTokens)
			if tail < cfg.MinTokens {
				if n-start <= cfg.MaxTokens {
					end = n
				} else if shifted := n - cfg.MinTokens + cfg.OverlapTokens; shifted-start >= cfg.MinTokens {
					end = shifted
				}
			}
		}

		// Boundary adjustment: end at the nearest sentence boundary
		// within the overlap lookback, provided the chunk stays at or
		// above the minimum. Skipped at section end, where the cutoff
		// is already a natural boundary.
		if end < n {
			if adjusted, ok := sentenceBoundary(tokens, start, end, cfg); ok {
				end = adjusted
			}
		}

		chunks = append(chunks, p.buildChunk(doc, runes, tokens[start:end], sec, len(chunks)))

		if end == n {
			break
		}
		// The next chunk re-covers the last overlap tokens.
		start = end - cfg.OverlapTokens
	}
	return chunks
}

// sentenceBoundary searches backward from the raw cutoff for a
// sentence-final token, at most overlap positions away.
func sentenceBoundary(tokens []driven.Token, start, end int, cfg domain.ChunkConfig) (int, bool) {
	lowest := end - cfg.OverlapTokens
	if lowest < start+cfg.MinTokens {
		lowest = start + cfg.MinTokens
	}
	for i := end - 1; i >= lowest; i-- {
		if tokens[i].SentenceEnd {
			return i + 1, true
		}
	}
	return 0, false
}

func (p *Processor) buildChunk(doc *domain.Document, runes []rune, tokens []driven.Token, sec section, index int) domain.Chunk {
	startRune := tokens[0].StartRune
	endRune := tokens[len(tokens)-1].EndRune
	content := string(runes[startRune:endRune])

	chunk := domain.Chunk{
		ID:           domain.ChunkID(doc.ID, index),
		DocumentID:   doc.ID,
		Index:        index,
		Content:      content,
		TokenCount:   len(tokens),
		StartRune:    startRune,
		EndRune:      endRune,
		SectionTitle: sec.title,
		SectionLevel: sec.level,
		Page:         sec.page,
	}
	chunk.IsTable = looksLikeTable(content)
	chunk.IsList = looksLikeList(content)
	chunk.IsCode = looksLikeCode(content)
	chunk.Features = extractFeatures(tokens, content)
	return chunk
}

// splitSections derives the pre-split regions from the document's
// heading outline. Headings above the split level do not cut the text;
// they still label chunks through the nearest enclosing heading.
func splitSections(doc *domain.Document, textLen, splitLevel int) []section {
	if splitLevel <= 0 || len(doc.Sections) == 0 {
		return labelOnly(doc, textLen)
	}

	var cuts []section
	for _, s := range doc.Sections {
		if s.Level <= splitLevel {
			cuts = append(cuts, section{start: s.Start, title: s.Title, level: s.Level, page: s.Page})
		}
	}
	if len(cuts) == 0 {
		return labelOnly(doc, textLen)
	}

	var sections []section
	if cuts[0].start > 0 {
		// Preamble before the first heading.
		sections = append(sections, section{start: 0, end: cuts[0].start})
	}
	for i := range cuts {
		sec := cuts[i]
		if i+1 < len(cuts) {
			sec.end = cuts[i+1].start
		} else {
			sec.end = textLen
		}
		sections = append(sections, sec)
	}
	return sections
}

// labelOnly yields a single region labelled with the first heading
// when that heading opens the document. Text before the first heading
// carries no label.
func labelOnly(doc *domain.Document, textLen int) []section {
	sec := section{start: 0, end: textLen}
	if len(doc.Sections) > 0 && doc.Sections[0].Start == 0 {
		sec.title = doc.Sections[0].Title
		sec.level = doc.Sections[0].Level
		sec.page = doc.Sections[0].Page
	}
	return []section{sec}
}

// sectionEnd advances from lo past every token starting before end.
// Sections take tokens in sequence, so a token straddling a cut
// belongs to the section it starts in and no token is dropped.
func sectionEnd(tokens []driven.Token, lo, end int) int {
	hi := lo
	for hi < len(tokens) && tokens[hi].StartRune < end {
		hi++
	}
	return hi
}
