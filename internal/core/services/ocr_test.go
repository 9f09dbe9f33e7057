package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchmint/ingest-cli/internal/adapters/driven/storage/memory"
	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
	"github.com/parchmint/ingest-cli/internal/ratelimit"
)

// stubEngine returns a fixed result or error and counts calls.
type stubEngine struct {
	name       string
	confidence float64
	text       string
	err        error

	mu    sync.Mutex
	calls int
}

func (e *stubEngine) Name() string { return e.name }

func (e *stubEngine) Recognise(_ context.Context, _ []byte, _ domain.DocumentType) (*driven.EngineResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	return &driven.EngineResult{Text: e.text, Confidence: e.confidence}, nil
}

func (e *stubEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestCoordinator(primary, secondary driven.OCREngine) (*Coordinator, *memory.ReviewStore) {
	reviews := memory.NewReviewStore()
	cfg := DefaultOCRConfig()
	// Keep tests off the wall clock.
	cfg.RateLimit = ratelimit.Config{RequestsPerSecond: 10000, BurstSize: 1000, MaxConcurrent: 16}
	return NewCoordinator(primary, secondary, reviews, cfg), reviews
}

func segment(index int) domain.ImageSegment {
	return domain.ImageSegment{Index: index, Page: 1, Data: []byte{0x01}, NeedsOCR: true}
}

func TestCoordinator_ExtractPrimary(t *testing.T) {
	primary := &stubEngine{name: "alpha", text: "hello", confidence: 0.95}
	secondary := &stubEngine{name: "beta", text: "fallback", confidence: 0.80}
	coord, _ := newTestCoordinator(primary, secondary)

	result, err := coord.Extract(context.Background(), []byte{0x01}, domain.TypePrinted)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Text)
	assert.Equal(t, "alpha", result.Engine)
	assert.Equal(t, 0, secondary.callCount())
}

func TestCoordinator_ExtractFallsBack(t *testing.T) {
	primary := &stubEngine{name: "alpha", err: errors.New("unreachable")}
	secondary := &stubEngine{name: "beta", text: "rescued", confidence: 0.92}
	coord, _ := newTestCoordinator(primary, secondary)

	result, err := coord.Extract(context.Background(), []byte{0x01}, domain.TypePrinted)
	require.NoError(t, err)
	assert.Equal(t, "rescued", result.Text)
	assert.Equal(t, "beta", result.Engine)
	assert.Equal(t, 1, primary.callCount())
}

// Low confidence from the primary must not trigger the fallback; only
// call failures do.
func TestCoordinator_LowConfidenceIsNotFallback(t *testing.T) {
	primary := &stubEngine{name: "alpha", text: "shaky", confidence: 0.40}
	secondary := &stubEngine{name: "beta", text: "unused", confidence: 0.99}
	coord, _ := newTestCoordinator(primary, secondary)

	result, err := coord.Extract(context.Background(), []byte{0x01}, domain.TypePrinted)
	require.NoError(t, err)
	assert.Equal(t, "alpha", result.Engine)
	assert.Equal(t, 0, secondary.callCount())
}

func TestCoordinator_ExtractBothFail(t *testing.T) {
	primary := &stubEngine{name: "alpha", err: errors.New("down")}
	secondary := &stubEngine{name: "beta", err: errors.New("also down")}
	coord, _ := newTestCoordinator(primary, secondary)

	result, err := coord.Extract(context.Background(), []byte{0x01}, domain.TypeHandwritten)
	assert.ErrorIs(t, err, domain.ErrAllEnginesFailed)
	require.NotNil(t, result)
	assert.True(t, result.Failed)
	assert.Empty(t, result.Text)
	assert.Contains(t, result.FailureCause, "down")
}

func TestCoordinator_BreakerStopsCallingFailingEngine(t *testing.T) {
	primary := &stubEngine{name: "alpha", err: errors.New("down")}
	secondary := &stubEngine{name: "beta", text: "ok", confidence: 0.95}
	coord, _ := newTestCoordinator(primary, secondary)

	for i := 0; i < 6; i++ {
		_, err := coord.Extract(context.Background(), []byte{0x01}, domain.TypePrinted)
		require.NoError(t, err)
	}

	// The breaker opens after three failures; later extractions go
	// straight to the secondary.
	assert.Equal(t, 3, primary.callCount())
	assert.Equal(t, 6, secondary.callCount())
}

func TestCoordinator_CoordinateRoutesLowConfidence(t *testing.T) {
	primary := &stubEngine{name: "alpha", text: "provisional", confidence: 0.60}
	coord, reviews := newTestCoordinator(primary, nil)
	ctx := context.Background()

	result, routed, err := coord.Coordinate(ctx, segment(0), "doc-1", domain.TypePrinted)
	require.NoError(t, err)
	assert.True(t, routed)
	assert.Equal(t, "provisional", result.Text)
	assert.Equal(t, "doc-1", result.DocumentID)

	items, err := reviews.List(ctx, driven.ReviewFilter{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.ReviewPending, items[0].Status)
	assert.Equal(t, domain.PriorityHigh, items[0].Priority)
	assert.Equal(t, "provisional", items[0].OriginalText)
}

func TestCoordinator_CoordinateAcceptsHighConfidence(t *testing.T) {
	// 0.78 passes the handwritten threshold (0.75) though it would fail
	// the printed one.
	primary := &stubEngine{name: "alpha", text: "neat script", confidence: 0.78}
	coord, reviews := newTestCoordinator(primary, nil)
	ctx := context.Background()

	_, routed, err := coord.Coordinate(ctx, segment(0), "doc-1", domain.TypeHandwritten)
	require.NoError(t, err)
	assert.False(t, routed)

	items, err := reviews.List(ctx, driven.ReviewFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCoordinator_CoordinateRoutesSegmentOnce(t *testing.T) {
	primary := &stubEngine{name: "alpha", text: "blurry", confidence: 0.50}
	coord, reviews := newTestCoordinator(primary, nil)
	ctx := context.Background()

	_, _, err := coord.Coordinate(ctx, segment(0), "doc-1", domain.TypePrinted)
	require.NoError(t, err)
	_, _, err = coord.Coordinate(ctx, segment(0), "doc-1", domain.TypePrinted)
	require.NoError(t, err)

	items, err := reviews.List(ctx, driven.ReviewFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCoordinator_ProcessDocument(t *testing.T) {
	primary := &stubEngine{name: "alpha", text: "fine", confidence: 0.95}
	coord, _ := newTestCoordinator(primary, nil)

	segments := []domain.ImageSegment{segment(0), segment(1), segment(2)}
	results, stats, err := coord.ProcessDocument(context.Background(), segments, "doc-1", domain.TypePrinted)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 3, stats.Segments)
	assert.Equal(t, 3, stats.Succeeded)
	assert.Equal(t, 0, stats.Routed)
	assert.Equal(t, 3, stats.EngineUse["alpha"])
	assert.InDelta(t, 1.0, stats.SuccessRate(), 1e-9)
}

func TestCoordinator_ProcessDocumentSurfacesFailures(t *testing.T) {
	primary := &stubEngine{name: "alpha", err: errors.New("down")}
	coord, _ := newTestCoordinator(primary, nil)

	segments := []domain.ImageSegment{segment(0), segment(1)}
	results, stats, err := coord.ProcessDocument(context.Background(), segments, "doc-1", domain.TypePrinted)
	assert.ErrorIs(t, err, domain.ErrAllEnginesFailed)
	require.Len(t, results, 2)
	assert.True(t, results[0].Failed)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 0, stats.Succeeded)
}

func TestCoordinator_LifetimeStats(t *testing.T) {
	primary := &stubEngine{name: "alpha", err: errors.New("down")}
	secondary := &stubEngine{name: "beta", text: "ok", confidence: 0.95}
	coord, _ := newTestCoordinator(primary, secondary)
	ctx := context.Background()

	_, _, err := coord.Coordinate(ctx, segment(0), "doc-1", domain.TypePrinted)
	require.NoError(t, err)
	_, _, err = coord.Coordinate(ctx, segment(1), "doc-1", domain.TypePrinted)
	require.NoError(t, err)

	stats := coord.Stats()
	assert.Equal(t, 2, stats.Segments)
	assert.Equal(t, 2, stats.FallbackUsed)
	assert.Equal(t, 2, stats.EngineUse["beta"])
}
