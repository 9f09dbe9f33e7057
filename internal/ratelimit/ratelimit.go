// Package ratelimit caps outbound calls to external services: a token
// bucket bounds the sustained request rate and a slot semaphore bounds
// in-flight concurrency. One limiter is shared across all OCR
// invocations, since the cost driver is external API concurrency, not
// per-document volume.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration for a service.
type Config struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
	// MaxConcurrent is the maximum number of in-flight calls. Zero or
	// negative means unbounded concurrency.
	MaxConcurrent int
}

// DefaultConfig provides conservative defaults for OCR engines: well
// below typical vendor limits to avoid hitting quotas.
var DefaultConfig = Config{RequestsPerSecond: 5.0, BurstSize: 5, MaxConcurrent: 4}

// Limiter enforces a request rate and a concurrency cap. Safe for use
// by concurrent callers.
type Limiter struct {
	limiter *rate.Limiter
	slots   chan struct{}
}

// New creates a limiter with the given configuration.
func New(cfg Config) *Limiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultConfig.BurstSize
	}

	l := &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
	if cfg.MaxConcurrent > 0 {
		l.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	return l
}

// Acquire blocks until a concurrency slot and a rate token are both
// available. Every successful Acquire must be paired with Release.
// The suspension point for callers is here, not in a callback chain.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.slots != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l.slots <- struct{}{}:
		}
	}

	if err := l.limiter.Wait(ctx); err != nil {
		// Give the slot back; the call never happened.
		l.Release()
		return err
	}
	return nil
}

// Release frees the concurrency slot taken by Acquire.
func (l *Limiter) Release() {
	if l.slots != nil {
		select {
		case <-l.slots:
		default:
		}
	}
}

// InFlight returns the number of currently held slots. Zero when
// concurrency is unbounded.
func (l *Limiter) InFlight() int {
	if l.slots == nil {
		return 0
	}
	return len(l.slots)
}
