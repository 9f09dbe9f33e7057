package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
	"github.com/parchmint/ingest-cli/internal/core/ports/driving"
	"github.com/parchmint/ingest-cli/internal/logger"
)

// Ensure ReviewQueueService implements the interface.
var _ driving.ReviewService = (*ReviewQueueService)(nil)

// ReviewQueueService exposes the manual review backlog to reviewers.
// Transition legality is enforced by the store atomically with the
// write; this layer adds claim ownership and the approval correction
// rule.
type ReviewQueueService struct {
	reviews driven.ReviewStore
	now     func() time.Time
}

// NewReviewQueueService creates a review service over the given store.
func NewReviewQueueService(reviews driven.ReviewStore) *ReviewQueueService {
	return &ReviewQueueService{reviews: reviews, now: time.Now}
}

// List returns backlog items matching the filter, worst first.
func (s *ReviewQueueService) List(ctx context.Context, filter driven.ReviewFilter) ([]domain.ReviewItem, error) {
	return s.reviews.List(ctx, filter)
}

// Take claims a pending item for a reviewer.
func (s *ReviewQueueService) Take(ctx context.Context, itemID, reviewer string) (*domain.ReviewItem, error) {
	if reviewer == "" {
		return nil, fmt.Errorf("%w: reviewer is required", domain.ErrInvalidInput)
	}

	item, err := s.reviews.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status != domain.ReviewPending {
		return nil, fmt.Errorf("%w: item %s is %s", domain.ErrInvalidTransition, itemID, item.Status)
	}

	item.Status = domain.ReviewInProgress
	item.Reviewer = reviewer
	item.UpdatedAt = s.now()
	if err := s.reviews.Update(ctx, item); err != nil {
		return nil, err
	}
	logger.Debug("Reviewer %s took item %s", reviewer, itemID)
	return item, nil
}

// Release abandons a claimed item back to the backlog. Only the
// claiming reviewer may release it.
func (s *ReviewQueueService) Release(ctx context.Context, itemID, reviewer string) error {
	item, err := s.reviews.Get(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Status == domain.ReviewInProgress && item.Reviewer != reviewer {
		return fmt.Errorf("%w: item %s is claimed by %s", domain.ErrInvalidTransition, itemID, item.Reviewer)
	}

	item.Status = domain.ReviewPending
	item.Reviewer = ""
	item.UpdatedAt = s.now()
	return s.reviews.Update(ctx, item)
}

// Review resolves an item with the reviewer's decision. A still-pending
// item is claimed implicitly; an item claimed by another reviewer is
// refused.
func (s *ReviewQueueService) Review(ctx context.Context, itemID, reviewer string, action domain.ReviewAction, correctedText string) error {
	if reviewer == "" {
		return fmt.Errorf("%w: reviewer is required", domain.ErrInvalidInput)
	}
	target, ok := action.StatusFor()
	if !ok {
		return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, action)
	}
	if action == domain.ActionApprove && correctedText == "" {
		return domain.ErrCorrectionRequired
	}

	item, err := s.reviews.Get(ctx, itemID)
	if err != nil {
		return err
	}
	if item.Status == domain.ReviewInProgress && item.Reviewer != reviewer {
		return fmt.Errorf("%w: item %s is claimed by %s", domain.ErrInvalidTransition, itemID, item.Reviewer)
	}

	// Pending items pass through in_review so the state machine only
	// ever sees permitted transitions.
	if item.Status == domain.ReviewPending {
		item.Status = domain.ReviewInProgress
		item.Reviewer = reviewer
		item.UpdatedAt = s.now()
		if err := s.reviews.Update(ctx, item); err != nil {
			return err
		}
	}

	now := s.now()
	item.Status = target
	item.Reviewer = reviewer
	item.UpdatedAt = now
	item.ReviewedAt = now
	if action == domain.ActionApprove {
		item.CorrectedText = correctedText
	}
	if err := s.reviews.Update(ctx, item); err != nil {
		return err
	}
	logger.Debug("Reviewer %s resolved item %s: %s", reviewer, itemID, target)
	return nil
}

// Stats summarises reviewer throughput over the window. Empty reviewer
// aggregates all reviewers; zero window is unbounded.
func (s *ReviewQueueService) Stats(ctx context.Context, reviewer string, window time.Duration) (*domain.ReviewStats, error) {
	filter := driven.ReviewFilter{Reviewer: reviewer}
	if window > 0 {
		filter.Since = s.now().Add(-window)
	}
	return s.reviews.Stats(ctx, filter)
}

// exportRecord is the JSON Lines shape of one exported item.
type exportRecord struct {
	ID            string  `json:"id"`
	DocumentID    string  `json:"document_id"`
	Page          int     `json:"page"`
	SegmentIndex  int     `json:"segment_index"`
	OriginalText  string  `json:"original_text"`
	CorrectedText string  `json:"corrected_text,omitempty"`
	Status        string  `json:"status"`
	Confidence    float64 `json:"confidence"`
	Engine        string  `json:"engine"`
	DocType       string  `json:"doc_type"`
	Priority      string  `json:"priority"`
	Reviewer      string  `json:"reviewer,omitempty"`
	CreatedAt     string  `json:"created_at"`
	ReviewedAt    string  `json:"reviewed_at,omitempty"`
}

// Export writes matching resolved items as JSON Lines. Non-ASCII text
// is written as-is so corrections keep their original script. When the
// filter names no status, unresolved items are skipped.
func (s *ReviewQueueService) Export(ctx context.Context, w io.Writer, filter driven.ReviewFilter) (int, error) {
	items, err := s.reviews.List(ctx, filter)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	count := 0
	for i := range items {
		item := &items[i]
		if filter.Status == "" && !item.Status.Terminal() {
			continue
		}
		record := exportRecord{
			ID:            item.ID,
			DocumentID:    item.DocumentID,
			Page:          item.Page,
			SegmentIndex:  item.SegmentIndex,
			OriginalText:  item.OriginalText,
			CorrectedText: item.CorrectedText,
			Status:        string(item.Status),
			Confidence:    item.Confidence,
			Engine:        item.Engine,
			DocType:       string(item.DocType),
			Priority:      item.Priority.String(),
			Reviewer:      item.Reviewer,
			CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
		}
		if !item.ReviewedAt.IsZero() {
			record.ReviewedAt = item.ReviewedAt.UTC().Format(time.RFC3339)
		}
		if err := enc.Encode(record); err != nil {
			return count, fmt.Errorf("encode item %s: %w", item.ID, err)
		}
		count++
	}
	return count, nil
}
