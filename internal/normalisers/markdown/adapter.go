package markdown

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.FormatAdapter = (*Adapter)(nil)

// Adapter handles Markdown documents. Headings become document sections
// with rune offsets into the normalised content so the chunker can split
// on structure; pipe tables are extracted alongside the text.
type Adapter struct{}

// New creates a new Markdown adapter.
func New() *Adapter {
	return &Adapter{}
}

// Format returns the source format this adapter handles.
func (a *Adapter) Format() domain.SourceFormat {
	return domain.FormatMarkdown
}

var (
	headingPattern   = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)
	imagePattern     = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkPattern      = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	separatorPattern = regexp.MustCompile(`^\|?[\s:|-]+\|?$`)
)

// Parse converts markdown to plain text, recording each heading as a
// Section anchored at its rune offset in the produced content.
func (a *Adapter) Parse(_ context.Context, orgID, checksum string, content []byte) (*domain.Document, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: markdown source is not valid UTF-8", domain.ErrMalformedInput)
	}

	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var (
		b         strings.Builder
		sections  []domain.Section
		tables    []domain.Table
		tableRows [][]string
		offset    int
		inFence   bool
	)

	flushTable := func() {
		if len(tableRows) > 0 {
			tables = append(tables, domain.Table{Rows: tableRows})
			tableRows = nil
		}
	}

	emit := func(line string) {
		b.WriteString(line)
		b.WriteString("\n")
		offset += utf8.RuneCountInString(line) + 1
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Fence markers are dropped; fenced content passes through
		// untouched so heading and table syntax inside code is ignored.
		if strings.HasPrefix(trimmed, "```") {
			flushTable()
			inFence = !inFence
			continue
		}
		if inFence {
			emit(line)
			continue
		}

		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			flushTable()
			title := stripInline(m[2])
			sections = append(sections, domain.Section{
				Title: title,
				Level: len(m[1]),
				Start: offset,
			})
			emit(title)
			continue
		}

		if strings.HasPrefix(trimmed, "|") {
			if row := parseTableRow(trimmed); row != nil {
				tableRows = append(tableRows, row)
			}
			emit(stripInline(line))
			continue
		}
		flushTable()

		emit(stripInline(line))
	}
	flushTable()

	return &domain.Document{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Checksum:  checksum,
		Format:    domain.FormatMarkdown,
		Content:   strings.TrimRight(b.String(), "\n"),
		Sections:  sections,
		Tables:    tables,
		CreatedAt: time.Now(),
	}, nil
}

// stripInline removes inline markdown formatting from a single line.
func stripInline(line string) string {
	line = imagePattern.ReplaceAllString(line, "")
	line = linkPattern.ReplaceAllString(line, "$1")
	line = strings.ReplaceAll(line, "**", "")
	line = strings.ReplaceAll(line, "__", "")
	line = strings.ReplaceAll(line, "`", "")

	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "> ") {
		line = strings.TrimPrefix(trimmed, "> ")
	}
	return line
}

// parseTableRow splits a pipe-table row into cells. Separator rows
// (|---|---|) return nil.
func parseTableRow(line string) []string {
	if separatorPattern.MatchString(line) {
		return nil
	}
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(stripInline(p)))
	}
	return cells
}
