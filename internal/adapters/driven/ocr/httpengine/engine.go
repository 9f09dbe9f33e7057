// Package httpengine is an OCREngine backed by an HTTP OCR service.
// The service takes a multipart upload and answers JSON; engines that
// omit a confidence score get a heuristic estimate so the coordinator
// always has one to route on.
package httpengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
	"unicode"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.OCREngine = (*Engine)(nil)

// Config holds the connection settings for one OCR service.
type Config struct {
	// Name identifies the engine in results and statistics.
	Name string

	// BaseURL is the service root, e.g. http://localhost:8001.
	BaseURL string

	// Timeout bounds a single recognition call. The coordinator applies
	// its own per-call deadline as well; this is the transport ceiling.
	Timeout time.Duration
}

// Engine calls a remote OCR service over HTTP.
type Engine struct {
	name    string
	baseURL string
	client  *http.Client
}

// New creates an engine for the given service.
func New(cfg Config) *Engine {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Engine{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name identifies the engine.
func (e *Engine) Name() string {
	return e.name
}

// recogniseResponse is the service's answer for one segment.
type recogniseResponse struct {
	Success    bool    `json:"success"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

// Recognise uploads the image and returns the extracted text. Transport
// failures, non-200 statuses and service-reported errors all surface as
// call failures; the coordinator decides on fallback.
func (e *Engine) Recognise(ctx context.Context, image []byte, docType domain.DocumentType) (*driven.EngineResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", "segment")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fileWriter.Write(image); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.WriteField("doc_type", string(docType)); err != nil {
		return nil, fmt.Errorf("write doc_type field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalise multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/recognise", &buf)
	if err != nil {
		return nil, fmt.Errorf("create recognise request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recognise request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("recognise returned status %d: %s", resp.StatusCode, string(body))
	}

	var out recogniseResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode recognise response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("recognition failed: %s", out.Error)
	}

	confidence := out.Confidence
	if confidence == 0 && out.Text != "" {
		confidence = estimateConfidence(out.Text)
	}

	return &driven.EngineResult{
		Text:       out.Text,
		Confidence: confidence,
	}, nil
}

// estimateConfidence derives a rough score from the text itself for
// services that report none. Garbled OCR output shows up as a high share
// of symbols and replacement characters relative to letters and digits.
func estimateConfidence(text string) float64 {
	var legible, total int
	for _, r := range text {
		total++
		switch {
		case r == '�':
			// Replacement character counts fully against legibility.
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r):
			legible++
		}
	}
	if total == 0 {
		return 0
	}

	ratio := float64(legible) / float64(total)

	// Uncalibrated scores never reach the top band; a human-set
	// threshold should still be able to route them to review.
	const ceiling = 0.85
	return ratio * ceiling
}
