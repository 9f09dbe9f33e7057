package chatjson

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.FormatAdapter = (*Adapter)(nil)

// Adapter handles JSON chat exports. Each message becomes one
// speaker-prefixed line so conversational turns survive chunking.
type Adapter struct{}

// New creates a new chat export adapter.
func New() *Adapter {
	return &Adapter{}
}

// Format returns the source format this adapter handles.
func (a *Adapter) Format() domain.SourceFormat {
	return domain.FormatChatJSON
}

// message tolerates the field names of common export tools. The first
// populated speaker and body field wins.
type message struct {
	Speaker   string `json:"speaker"`
	Sender    string `json:"sender"`
	From      string `json:"from"`
	Text      string `json:"text"`
	Content   string `json:"content"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (m message) speaker() string {
	for _, s := range []string{m.Speaker, m.Sender, m.From} {
		if s != "" {
			return s
		}
	}
	return "unknown"
}

func (m message) body() string {
	for _, s := range []string{m.Text, m.Content, m.Message} {
		if s != "" {
			return s
		}
	}
	return ""
}

// export matches the common envelope shape {"messages": [...]}; a bare
// top-level array is also accepted.
type export struct {
	Messages []message `json:"messages"`
}

// Parse decodes the export and renders one line per message. Invalid
// JSON and envelopes without a message list are malformed input.
func (a *Adapter) Parse(_ context.Context, orgID, checksum string, content []byte) (*domain.Document, error) {
	messages, err := decode(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedInput, err)
	}

	var b strings.Builder
	for _, m := range messages {
		body := strings.TrimSpace(m.body())
		if body == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.speaker(), body)
	}

	return &domain.Document{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Checksum:  checksum,
		Format:    domain.FormatChatJSON,
		Content:   strings.TrimRight(b.String(), "\n"),
		CreatedAt: time.Now(),
	}, nil
}

func decode(content []byte) ([]message, error) {
	trimmed := strings.TrimSpace(string(content))
	if strings.HasPrefix(trimmed, "[") {
		var messages []message
		if err := json.Unmarshal(content, &messages); err != nil {
			return nil, err
		}
		return messages, nil
	}

	var env export
	if err := json.Unmarshal(content, &env); err != nil {
		return nil, err
	}
	if env.Messages == nil {
		return nil, fmt.Errorf("no messages field in chat export")
	}
	return env.Messages, nil
}
