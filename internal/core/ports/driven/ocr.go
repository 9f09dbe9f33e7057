package driven

import (
	"context"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// EngineResult is a single OCR engine's raw output for one segment.
type EngineResult struct {
	// Text is the extracted text.
	Text string

	// Confidence is the engine's estimate in [0,1]. Engines that do not
	// report one must estimate heuristically; the coordinator relies on
	// it being populated.
	Confidence float64
}

// OCREngine is one OCR vendor implementation. The coordinator arbitrates
// between a primary and a secondary engine of different cost/quality.
type OCREngine interface {
	// Name identifies the engine in results and statistics.
	Name() string

	// Recognise extracts text from an image. The document-type hint lets
	// engines select handwriting models where supported. Errors are call
	// failures (unreachable, timeout, bad response); low confidence is a
	// successful call.
	Recognise(ctx context.Context, image []byte, docType domain.DocumentType) (*EngineResult, error)
}
