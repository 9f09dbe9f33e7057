package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/parchmint/ingest-cli/internal/core/domain"
	"github.com/parchmint/ingest-cli/internal/core/ports/driven"
	"github.com/parchmint/ingest-cli/internal/core/ports/driving"
	"github.com/parchmint/ingest-cli/internal/logger"
	"github.com/parchmint/ingest-cli/internal/ratelimit"
)

// Ensure Coordinator implements the interface.
var _ driving.OCRCoordinator = (*Coordinator)(nil)

// OCRConfig tunes the coordinator.
type OCRConfig struct {
	// Thresholds is the per-document-type minimum acceptable confidence.
	Thresholds domain.ConfidenceThresholds

	// CallTimeout bounds one engine call. A timed-out call counts as an
	// engine failure and triggers the fallback.
	CallTimeout time.Duration

	// RateLimit caps sustained rate and in-flight concurrency across all
	// engine calls, shared by every document.
	RateLimit ratelimit.Config
}

// DefaultOCRConfig returns production defaults.
func DefaultOCRConfig() OCRConfig {
	return OCRConfig{
		Thresholds:  domain.DefaultThresholds(),
		CallTimeout: 30 * time.Second,
		RateLimit:   ratelimit.DefaultConfig,
	}
}

// Coordinator arbitrates between a primary and a secondary OCR engine
// and routes low-confidence output to manual review. Each engine sits
// behind its own circuit breaker so a flapping vendor degrades to the
// other engine instead of burning the rate budget on doomed calls.
type Coordinator struct {
	primary   driven.OCREngine
	secondary driven.OCREngine
	reviews   driven.ReviewStore
	limiter   *ratelimit.Limiter
	cfg       OCRConfig

	primaryBreaker   *gobreaker.CircuitBreaker
	secondaryBreaker *gobreaker.CircuitBreaker

	mu    sync.Mutex
	stats domain.OCRStats
}

// NewCoordinator creates a coordinator over two engines. The secondary
// may be nil, in which case a primary call failure fails the segment.
func NewCoordinator(primary, secondary driven.OCREngine, reviews driven.ReviewStore, cfg OCRConfig) *Coordinator {
	if cfg.Thresholds == nil {
		cfg.Thresholds = domain.DefaultThresholds()
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultOCRConfig().CallTimeout
	}

	c := &Coordinator{
		primary:        primary,
		secondary:      secondary,
		reviews:        reviews,
		limiter:        ratelimit.New(cfg.RateLimit),
		cfg:            cfg,
		primaryBreaker: newEngineBreaker(primary.Name()),
	}
	if secondary != nil {
		c.secondaryBreaker = newEngineBreaker(secondary.Name())
	}
	return c
}

// newEngineBreaker builds a per-engine circuit breaker: trips after a
// 60% failure ratio over at least 3 calls, probes again after 30s.
func newEngineBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("OCR engine %s breaker: %s -> %s", name, from, to)
		},
	})
}

// Extract obtains text for one image: primary engine first, secondary
// on call failure. Low confidence is a successful extraction; only call
// failures (timeout, unreachable, open breaker) trigger the fallback.
func (c *Coordinator) Extract(ctx context.Context, image []byte, docType domain.DocumentType) (*domain.OCRResult, error) {
	primaryResult, primaryErr := c.callEngine(ctx, c.primary, c.primaryBreaker, image, docType)
	if primaryErr == nil {
		return c.toResult(c.primary.Name(), primaryResult, docType), nil
	}
	logger.Debug("Primary engine %s failed: %v", c.primary.Name(), primaryErr)

	if c.secondary == nil {
		return c.failedResult(docType, primaryErr), fmt.Errorf("%w: %v", domain.ErrAllEnginesFailed, primaryErr)
	}

	secondaryResult, secondaryErr := c.callEngine(ctx, c.secondary, c.secondaryBreaker, image, docType)
	if secondaryErr == nil {
		return c.toResult(c.secondary.Name(), secondaryResult, docType), nil
	}
	logger.Debug("Secondary engine %s failed: %v", c.secondary.Name(), secondaryErr)

	joined := errors.Join(primaryErr, secondaryErr)
	return c.failedResult(docType, joined), fmt.Errorf("%w: %v", domain.ErrAllEnginesFailed, joined)
}

// Coordinate extracts text for a segment and routes it to review when
// confidence falls below the document type's threshold. The provisional
// text is returned either way; review resolution happens out of band.
func (c *Coordinator) Coordinate(ctx context.Context, segment domain.ImageSegment, documentID string, docType domain.DocumentType) (*domain.OCRResult, bool, error) {
	result, err := c.Extract(ctx, segment.Data, docType)
	result.DocumentID = documentID
	result.Page = segment.Page
	result.SegmentIndex = segment.Index

	if err != nil {
		c.record(result, false)
		return result, false, err
	}

	threshold := c.cfg.Thresholds.For(docType)
	routed := result.Confidence < threshold
	if routed {
		item := &domain.ReviewItem{
			ID:           uuid.NewString(),
			DocumentID:   documentID,
			Page:         segment.Page,
			SegmentIndex: segment.Index,
			OriginalText: result.Text,
			Confidence:   result.Confidence,
			Engine:       result.Engine,
			DocType:      docType,
			Priority:     domain.PriorityFor(result.Confidence, threshold),
			Status:       domain.ReviewPending,
			CreatedAt:    time.Now(),
		}
		if _, cerr := c.reviews.Create(ctx, item); cerr != nil {
			c.record(result, false)
			return result, false, fmt.Errorf("route to review: %w", cerr)
		}
		logger.Debug("Routed %s p%d s%d to review (%.2f < %.2f, %s)",
			documentID, segment.Page, segment.Index, result.Confidence, threshold, item.Priority)
	}

	c.record(result, routed)
	return result, routed, nil
}

// ProcessDocument coordinates every segment in order. The returned
// stats cover this document only; a segment failed on both engines
// surfaces in the aggregate error so callers never mistake the empty
// text for content.
func (c *Coordinator) ProcessDocument(ctx context.Context, segments []domain.ImageSegment, documentID string, docType domain.DocumentType) ([]domain.OCRResult, *domain.OCRStats, error) {
	results := make([]domain.OCRResult, 0, len(segments))
	stats := &domain.OCRStats{EngineUse: make(map[string]int)}
	var errs []error

	for _, segment := range segments {
		result, routed, err := c.Coordinate(ctx, segment, documentID, docType)
		results = append(results, *result)
		if err != nil {
			errs = append(errs, fmt.Errorf("segment %d: %w", segment.Index, err))
		}
		stats.Add(c.statsFor(result, routed))
	}

	return results, stats, errors.Join(errs...)
}

// Stats returns the coordinator's lifetime statistics.
func (c *Coordinator) Stats() domain.OCRStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.stats
	snapshot.EngineUse = make(map[string]int, len(c.stats.EngineUse))
	for engine, n := range c.stats.EngineUse {
		snapshot.EngineUse[engine] = n
	}
	return snapshot
}

// callEngine runs one engine call under the shared rate limiter, the
// engine's breaker and the per-call timeout.
func (c *Coordinator) callEngine(ctx context.Context, engine driven.OCREngine, breaker *gobreaker.CircuitBreaker, image []byte, docType domain.DocumentType) (*driven.EngineResult, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.limiter.Release()

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	defer cancel()

	out, err := breaker.Execute(func() (interface{}, error) {
		result, rerr := engine.Recognise(callCtx, image, docType)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrEngineFailure, engine.Name(), rerr)
		}
		return result, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			return nil, fmt.Errorf("%w: %s: breaker open", domain.ErrEngineFailure, engine.Name())
		}
		return nil, err
	}
	return out.(*driven.EngineResult), nil
}

func (c *Coordinator) toResult(engine string, r *driven.EngineResult, docType domain.DocumentType) *domain.OCRResult {
	return &domain.OCRResult{
		Text:       r.Text,
		Confidence: r.Confidence,
		Engine:     engine,
		DocType:    docType,
	}
}

func (c *Coordinator) failedResult(docType domain.DocumentType, cause error) *domain.OCRResult {
	return &domain.OCRResult{
		DocType:      docType,
		Failed:       true,
		FailureCause: cause.Error(),
	}
}

// statsFor summarises one segment outcome.
func (c *Coordinator) statsFor(result *domain.OCRResult, routed bool) domain.OCRStats {
	s := domain.OCRStats{Segments: 1, EngineUse: make(map[string]int)}
	if result.Failed {
		s.Failed = 1
		return s
	}
	s.Succeeded = 1
	s.EngineUse[result.Engine] = 1
	if routed {
		s.Routed = 1
	}
	if c.secondary != nil && result.Engine == c.secondary.Name() {
		s.FallbackUsed = 1
	}
	return s
}

// record folds one segment outcome into the lifetime statistics.
func (c *Coordinator) record(result *domain.OCRResult, routed bool) {
	delta := c.statsFor(result, routed)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Add(delta)
}
