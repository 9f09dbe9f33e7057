package domain

import (
	"fmt"
	"strings"
	"time"
)

// Document is the canonical in-memory representation produced by a format
// adapter and consumed by the chunker. Content may contain OCR
// placeholders (see ImageSegment.Placeholder) until OCR resolves them.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// OrgID is the organisation namespace.
	OrgID string

	// Checksum is the content hash of the source file. Persistence is
	// keyed by it so duplicate processing collapses into an upsert.
	Checksum string

	// Format is the detected source format.
	Format SourceFormat

	// Content is the full normalised text. Regions awaiting OCR hold the
	// segment's placeholder string.
	Content string

	// Sections is the ordered structural outline (headings).
	Sections []Section

	// Tables holds extracted tabular data.
	Tables []Table

	// Images holds embedded images, each flagged for OCR as needed.
	Images []ImageSegment

	// CreatedAt is when the adapter produced the document.
	CreatedAt time.Time
}

// ResolveImage substitutes OCR text for the segment's placeholder in
// Content. It is the only mutation a Document undergoes after creation.
func (d *Document) ResolveImage(index int, text string) {
	for i := range d.Images {
		if d.Images[i].Index == index {
			d.Content = strings.Replace(d.Content, d.Images[i].Placeholder(), text, 1)
			d.Images[i].NeedsOCR = false
			return
		}
	}
}

// NeedsOCR reports whether any embedded image still awaits OCR.
func (d *Document) NeedsOCR() bool {
	for _, img := range d.Images {
		if img.NeedsOCR {
			return true
		}
	}
	return false
}

// Section is a structural unit of the document (heading scope).
type Section struct {
	// Title is the heading text.
	Title string

	// Level is the nesting level (1 = top).
	Level int

	// Page is the 1-based source page, 0 when the format has no pages.
	Page int

	// Start is the rune offset of the section within Content.
	Start int
}

// Table holds extracted tabular data with its source page.
type Table struct {
	Page int
	Rows [][]string
}

// ImageSegment is an embedded image region, ordered by Index within the
// document.
type ImageSegment struct {
	// Index is the ordinal position of the segment in the document.
	Index int

	// Page is the 1-based source page.
	Page int

	// Data is the raw image bytes handed to the OCR engines.
	Data []byte

	// NeedsOCR is true until OCR resolution replaces the placeholder.
	NeedsOCR bool
}

// Placeholder returns the marker that stands in for this segment's text
// in Document.Content until OCR resolves it.
func (s ImageSegment) Placeholder() string {
	return fmt.Sprintf("⟦ocr-pending:%d⟧", s.Index)
}
