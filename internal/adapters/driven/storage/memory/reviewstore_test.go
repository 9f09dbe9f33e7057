package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
)

func newTestItem(docID string, segment int, confidence float64, priority domain.ReviewPriority) *domain.ReviewItem {
	return &domain.ReviewItem{
		DocumentID:   docID,
		Page:         1,
		SegmentIndex: segment,
		OriginalText: "text",
		Confidence:   confidence,
		Engine:       "primary",
		DocType:      domain.TypePrinted,
		Priority:     priority,
		Status:       domain.ReviewPending,
		CreatedAt:    time.Now(),
	}
}

func TestReviewStore_CreateDeduplicatesCompositeKey(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	id1, err := store.Create(ctx, newTestItem("doc", 0, 0.5, domain.PriorityHigh))
	require.NoError(t, err)

	id2, err := store.Create(ctx, newTestItem("doc", 0, 0.6, domain.PriorityMedium))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	id3, err := store.Create(ctx, newTestItem("doc", 1, 0.5, domain.PriorityHigh))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)
}

func TestReviewStore_ListWorstFirst(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	_, err := store.Create(ctx, newTestItem("doc", 0, 0.80, domain.PriorityLow))
	require.NoError(t, err)
	_, err = store.Create(ctx, newTestItem("doc", 1, 0.40, domain.PriorityCritical))
	require.NoError(t, err)
	_, err = store.Create(ctx, newTestItem("doc", 2, 0.55, domain.PriorityHigh))
	require.NoError(t, err)
	_, err = store.Create(ctx, newTestItem("doc", 3, 0.60, domain.PriorityHigh))
	require.NoError(t, err)

	items, err := store.List(ctx, driven.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, domain.PriorityCritical, items[0].Priority)
	// Within equal priority, lower confidence first.
	assert.Equal(t, 0.55, items[1].Confidence)
	assert.Equal(t, 0.60, items[2].Confidence)
	assert.Equal(t, domain.PriorityLow, items[3].Priority)
}

func TestReviewStore_ListFilters(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	handwritten := newTestItem("doc", 0, 0.5, domain.PriorityHigh)
	handwritten.DocType = domain.TypeHandwritten
	_, err := store.Create(ctx, handwritten)
	require.NoError(t, err)

	_, err = store.Create(ctx, newTestItem("doc", 1, 0.5, domain.PriorityLow))
	require.NoError(t, err)

	items, err := store.List(ctx, driven.ReviewFilter{DocType: domain.TypeHandwritten})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 0, items[0].SegmentIndex)

	items, err = store.List(ctx, driven.ReviewFilter{Priority: domain.PriorityLow})
	require.NoError(t, err)
	require.Len(t, items, 1)

	items, err = store.List(ctx, driven.ReviewFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestReviewStore_UpdateEnforcesTransitions(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	id, err := store.Create(ctx, newTestItem("doc", 0, 0.5, domain.PriorityHigh))
	require.NoError(t, err)

	item, err := store.Get(ctx, id)
	require.NoError(t, err)

	// pending_review cannot jump straight to approved.
	item.Status = domain.ReviewApproved
	assert.ErrorIs(t, store.Update(ctx, item), domain.ErrInvalidTransition)

	item.Status = domain.ReviewInProgress
	item.Reviewer = "alex"
	require.NoError(t, store.Update(ctx, item))

	item.Status = domain.ReviewApproved
	item.CorrectedText = "fixed text"
	item.ReviewedAt = time.Now()
	require.NoError(t, store.Update(ctx, item))

	// Terminal states never move again.
	item.Status = domain.ReviewPending
	assert.ErrorIs(t, store.Update(ctx, item), domain.ErrInvalidTransition)
}

func TestReviewStore_Stats(t *testing.T) {
	store := NewReviewStore()
	ctx := context.Background()

	created := time.Now().Add(-time.Hour)

	approve := newTestItem("doc", 0, 0.5, domain.PriorityHigh)
	approve.CreatedAt = created
	id, err := store.Create(ctx, approve)
	require.NoError(t, err)

	item, err := store.Get(ctx, id)
	require.NoError(t, err)
	item.Status = domain.ReviewInProgress
	require.NoError(t, store.Update(ctx, item))
	item.Status = domain.ReviewApproved
	item.CorrectedText = "ok"
	item.ReviewedAt = created.Add(30 * time.Minute)
	require.NoError(t, store.Update(ctx, item))

	reject := newTestItem("doc", 1, 0.7, domain.PriorityMedium)
	reject.CreatedAt = created
	id, err = store.Create(ctx, reject)
	require.NoError(t, err)
	item, err = store.Get(ctx, id)
	require.NoError(t, err)
	item.Status = domain.ReviewInProgress
	require.NoError(t, store.Update(ctx, item))
	item.Status = domain.ReviewRejected
	item.ReviewedAt = created.Add(10 * time.Minute)
	require.NoError(t, store.Update(ctx, item))

	_, err = store.Create(ctx, newTestItem("doc", 2, 0.8, domain.PriorityLow))
	require.NoError(t, err)

	stats, err := store.Stats(ctx, driven.ReviewFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.CountsByStatus[domain.ReviewApproved])
	assert.Equal(t, 1, stats.CountsByStatus[domain.ReviewRejected])
	assert.Equal(t, 1, stats.CountsByStatus[domain.ReviewPending])
	assert.InDelta(t, 0.6, stats.AverageConfidence, 1e-9)
	assert.InDelta(t, 0.5, stats.ApprovalRate, 1e-9)
	assert.Equal(t, 20*time.Minute, stats.MeanTurnaround)
}
