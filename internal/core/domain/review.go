package domain

import "time"

// ReviewStatus is the lifecycle state of a review item. Transitions are
// one-directional except in_review → pending_review on abandonment.
type ReviewStatus string

const (
	// ReviewPending means the item awaits a reviewer.
	ReviewPending ReviewStatus = "pending_review"
	// ReviewInProgress means a reviewer has claimed the item.
	ReviewInProgress ReviewStatus = "in_review"
	// ReviewApproved means the reviewer confirmed or corrected the text.
	ReviewApproved ReviewStatus = "approved"
	// ReviewRejected means the segment is unusable.
	ReviewRejected ReviewStatus = "rejected"
	// ReviewSkipped means the reviewer deferred judgement.
	ReviewSkipped ReviewStatus = "skipped"
)

// Terminal returns true for states an item never leaves.
func (s ReviewStatus) Terminal() bool {
	return s == ReviewApproved || s == ReviewRejected || s == ReviewSkipped
}

// CanTransition reports whether the status machine permits s → to.
func (s ReviewStatus) CanTransition(to ReviewStatus) bool {
	switch s {
	case ReviewPending:
		return to == ReviewInProgress
	case ReviewInProgress:
		return to == ReviewPending || to.Terminal()
	default:
		return false
	}
}

// ReviewPriority orders the manual review backlog; higher burns first.
type ReviewPriority int

const (
	// PriorityLow is barely below threshold.
	PriorityLow ReviewPriority = iota + 1
	// PriorityMedium is noticeably below threshold.
	PriorityMedium
	// PriorityHigh is well below threshold.
	PriorityHigh
	// PriorityCritical is severely below threshold.
	PriorityCritical
)

// String returns the priority label.
func (p ReviewPriority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// PriorityFor derives the review priority from the confidence deficit
// below the type threshold. It is a pure function: the larger the
// deficit, the higher the priority, so priority is monotonically
// non-increasing in confidence.
func PriorityFor(confidence, threshold float64) ReviewPriority {
	deficit := threshold - confidence
	switch {
	case deficit > 0.30:
		return PriorityCritical
	case deficit > 0.10:
		return PriorityHigh
	case deficit > 0.03:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ReviewItem is a persisted OCR segment awaiting human correction.
// Items are kept forever for audit and training; the composite key
// (document, page, segment) is unique.
type ReviewItem struct {
	// ID is the unique identifier for the item.
	ID string

	// DocumentID, Page and SegmentIndex form the composite key.
	DocumentID   string
	Page         int
	SegmentIndex int

	// OriginalText is the OCR output under review.
	OriginalText string

	// Confidence is the OCR confidence that triggered routing.
	Confidence float64

	// Engine identifies the engine that produced the text.
	Engine string

	// DocType is the document-type hint at recognition time.
	DocType DocumentType

	// Priority is derived from the confidence deficit at creation time.
	Priority ReviewPriority

	// Status is the current review state.
	Status ReviewStatus

	// CorrectedText is the reviewer's replacement text. Required for
	// approval; may equal OriginalText when confirmed correct.
	CorrectedText string

	// Reviewer identifies who claimed or resolved the item.
	Reviewer string

	// CreatedAt is when the coordinator routed the segment.
	CreatedAt time.Time

	// UpdatedAt is when the item last changed state.
	UpdatedAt time.Time

	// ReviewedAt is when the item reached a terminal state.
	ReviewedAt time.Time
}

// ReviewAction is a reviewer's decision on a claimed item.
type ReviewAction string

const (
	// ActionApprove accepts the corrected text.
	ActionApprove ReviewAction = "approve"
	// ActionReject marks the segment unusable.
	ActionReject ReviewAction = "reject"
	// ActionSkip defers judgement.
	ActionSkip ReviewAction = "skip"
)

// StatusFor maps an action to its terminal status.
func (a ReviewAction) StatusFor() (ReviewStatus, bool) {
	switch a {
	case ActionApprove:
		return ReviewApproved, true
	case ActionReject:
		return ReviewRejected, true
	case ActionSkip:
		return ReviewSkipped, true
	default:
		return "", false
	}
}

// ReviewStats summarises reviewer throughput over a window.
type ReviewStats struct {
	// CountsByStatus holds item counts per status.
	CountsByStatus map[ReviewStatus]int

	// AverageConfidence is the mean confidence of resolved items.
	AverageConfidence float64

	// ApprovalRate is approved / (approved + rejected).
	ApprovalRate float64

	// MeanTurnaround is the average time from creation to resolution.
	MeanTurnaround time.Duration
}
