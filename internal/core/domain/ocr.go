package domain

// DocumentType hints at the material an OCR segment contains. Confidence
// thresholds are stricter for harder material.
type DocumentType string

const (
	// TypePrinted is machine-printed material.
	TypePrinted DocumentType = "printed"
	// TypeHandwritten is handwritten material.
	TypeHandwritten DocumentType = "handwritten"
	// TypeMixed contains both printed and handwritten regions.
	TypeMixed DocumentType = "mixed"
)

// OCRResult is the outcome of recognising one image segment. Confidence
// is always populated, even when heuristically estimated, so review
// routing stays deterministic.
type OCRResult struct {
	// Text is the extracted text. Provisional when routed to review.
	Text string

	// Confidence is the engine's estimated correctness in [0,1].
	Confidence float64

	// Engine identifies which engine produced the result.
	Engine string

	// DocumentID, Page and SegmentIndex locate the segment.
	DocumentID   string
	Page         int
	SegmentIndex int

	// DocType is the document-type hint the segment was recognised with.
	DocType DocumentType

	// Failed marks a segment for which both engines failed outright.
	// Text is empty and must never be silently substituted downstream.
	Failed bool

	// FailureCause is the human-readable cause when Failed is set.
	FailureCause string
}

// ConfidenceThresholds maps document types to the minimum acceptable
// confidence. Results below the type's threshold are routed to review.
type ConfidenceThresholds map[DocumentType]float64

// DefaultThresholds are conservative production defaults: handwriting is
// held to a stricter standard than print.
func DefaultThresholds() ConfidenceThresholds {
	return ConfidenceThresholds{
		TypePrinted:     0.90,
		TypeHandwritten: 0.75,
		TypeMixed:       0.85,
	}
}

// For returns the threshold for a document type, falling back to the
// mixed threshold for unknown types.
func (t ConfidenceThresholds) For(dt DocumentType) float64 {
	if v, ok := t[dt]; ok {
		return v
	}
	if v, ok := t[TypeMixed]; ok {
		return v
	}
	return 0.85
}

// OCRStats aggregates coordinator activity over one document (or, when
// accumulated, a worker's lifetime).
type OCRStats struct {
	// Segments is the number of segments processed.
	Segments int

	// Succeeded counts segments with a usable (accepted or provisional) result.
	Succeeded int

	// Failed counts segments where both engines failed.
	Failed int

	// Routed counts segments sent to manual review.
	Routed int

	// FallbackUsed counts segments recognised by the secondary engine.
	FallbackUsed int

	// EngineUse counts results per engine identifier.
	EngineUse map[string]int
}

// Add merges other into s.
func (s *OCRStats) Add(other OCRStats) {
	s.Segments += other.Segments
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Routed += other.Routed
	s.FallbackUsed += other.FallbackUsed
	if s.EngineUse == nil {
		s.EngineUse = make(map[string]int)
	}
	for engine, n := range other.EngineUse {
		s.EngineUse[engine] += n
	}
}

// SuccessRate is the fraction of segments with a usable result.
func (s OCRStats) SuccessRate() float64 {
	if s.Segments == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Segments)
}

// ReviewRate is the fraction of segments routed to review.
func (s OCRStats) ReviewRate() float64 {
	if s.Segments == 0 {
		return 0
	}
	return float64(s.Routed) / float64(s.Segments)
}
