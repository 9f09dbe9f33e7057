package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

// Ensure ReviewStore implements the interface.
var _ driven.ReviewStore = (*ReviewStore)(nil)

// ReviewStore is an in-memory implementation of driven.ReviewStore.
type ReviewStore struct {
	mu    sync.Mutex
	items map[string]*domain.ReviewItem
	// byKey indexes the composite (document, page, segment) key.
	byKey map[string]string
}

// NewReviewStore creates a new in-memory review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		items: make(map[string]*domain.ReviewItem),
		byKey: make(map[string]string),
	}
}

func compositeKey(docID string, page, segment int) string {
	return fmt.Sprintf("%s/%d/%d", docID, page, segment)
}

// Create stores a new review item. Re-routing the same segment is a
// no-op returning the existing item's ID.
func (s *ReviewStore) Create(_ context.Context, item *domain.ReviewItem) (string, error) {
	if item == nil {
		return "", domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := compositeKey(item.DocumentID, item.Page, item.SegmentIndex)
	if existing, ok := s.byKey[key]; ok {
		return existing, nil
	}

	cp := *item
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	s.items[cp.ID] = &cp
	s.byKey[key] = cp.ID
	return cp.ID, nil
}

// Get retrieves an item by ID.
func (s *ReviewStore) Get(_ context.Context, id string) (*domain.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

// List returns items matching the filter, worst first.
func (s *ReviewStore) List(_ context.Context, filter driven.ReviewFilter) ([]domain.ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.ReviewItem //nolint:prealloc // size unknown until filtered
	for _, item := range s.items {
		if !matches(item, filter) {
			continue
		}
		out = append(out, *item)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Confidence < out[j].Confidence
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// Update persists a status change, guarding the transition against the
// currently stored status.
func (s *ReviewStore) Update(_ context.Context, item *domain.ReviewItem) error {
	if item == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status != item.Status && !stored.Status.CanTransition(item.Status) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, stored.Status, item.Status)
	}

	cp := *item
	s.items[item.ID] = &cp
	return nil
}

// Stats aggregates counts, confidence, approval rate and turnaround.
func (s *ReviewStore) Stats(_ context.Context, filter driven.ReviewFilter) (*domain.ReviewStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &domain.ReviewStats{CountsByStatus: make(map[domain.ReviewStatus]int)}

	var confidenceSum float64
	var resolved, approved, rejected int
	var turnaroundSum time.Duration

	for _, item := range s.items {
		if !matches(item, filter) {
			continue
		}
		stats.CountsByStatus[item.Status]++

		if !item.Status.Terminal() {
			continue
		}
		resolved++
		confidenceSum += item.Confidence
		if !item.ReviewedAt.IsZero() {
			turnaroundSum += item.ReviewedAt.Sub(item.CreatedAt)
		}
		switch item.Status {
		case domain.ReviewApproved:
			approved++
		case domain.ReviewRejected:
			rejected++
		}
	}

	if resolved > 0 {
		stats.AverageConfidence = confidenceSum / float64(resolved)
		stats.MeanTurnaround = turnaroundSum / time.Duration(resolved)
	}
	if approved+rejected > 0 {
		stats.ApprovalRate = float64(approved) / float64(approved+rejected)
	}
	return stats, nil
}

func matches(item *domain.ReviewItem, filter driven.ReviewFilter) bool {
	if filter.Status != "" && item.Status != filter.Status {
		return false
	}
	if filter.Priority != 0 && item.Priority != filter.Priority {
		return false
	}
	if filter.DocType != "" && item.DocType != filter.DocType {
		return false
	}
	if filter.Reviewer != "" && item.Reviewer != filter.Reviewer {
		return false
	}
	if !filter.Since.IsZero() && item.CreatedAt.Before(filter.Since) {
		return false
	}
	return true
}
