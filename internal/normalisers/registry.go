package normalisers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
	"github.com/parchmint/ingest-cli/internal/normalisers/chatjson"
	"github.com/parchmint/ingest-cli/internal/normalisers/image"
	"github.com/parchmint/ingest-cli/internal/normalisers/markdown"
	"github.com/parchmint/ingest-cli/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.AdapterRegistry = (*Registry)(nil)

// Registry resolves format adapters from the closed format set.
type Registry struct {
	adapters map[domain.SourceFormat]driven.FormatAdapter
}

// NewRegistry creates a registry with all built-in adapters.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[domain.SourceFormat]driven.FormatAdapter)}
	for _, a := range []driven.FormatAdapter{
		plaintext.New(),
		markdown.New(),
		chatjson.New(),
		image.New(),
	} {
		r.adapters[a.Format()] = a
	}
	return r
}

// Resolve returns the adapter for the format. Unknown formats fall
// through to content sniffing; formats without an adapter (handled by
// external collaborators, or undetectable) are unsupported.
func (r *Registry) Resolve(format domain.SourceFormat, content []byte) (driven.FormatAdapter, error) {
	if format == domain.FormatUnknown || format == "" {
		format = Sniff(content)
	}
	adapter, ok := r.adapters[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	return adapter, nil
}

// Sniff guesses the source format from the content itself. It is the
// fallback when the file extension told us nothing.
func Sniff(content []byte) domain.SourceFormat {
	if image.IsImage(content) {
		return domain.FormatImage
	}
	if !utf8.Valid(content) {
		return domain.FormatUnknown
	}

	text := strings.TrimSpace(string(content))
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return domain.FormatChatJSON
	}
	if looksLikeMarkdown(text) {
		return domain.FormatMarkdown
	}
	return domain.FormatPlaintext
}

// looksLikeMarkdown checks for ATX headings or fenced code blocks, the
// two markers that change how the adapter treats the text.
func looksLikeMarkdown(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			return true
		}
		if strings.HasPrefix(trimmed, "#") {
			rest := strings.TrimLeft(trimmed, "#")
			if strings.HasPrefix(rest, " ") {
				return true
			}
		}
	}
	return false
}
