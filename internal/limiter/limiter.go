package limiter

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// Limiter bounds model calls by rate and by concurrency.
type Limiter struct {
	semaphore   chan struct{}
	rateLimiter *rate.Limiter
}

// New allows ratePerSecond calls per second with a burst of at least one,
// and at most maxConcurrent in flight. Non-positive values disable that bound.
func New(maxConcurrent int, ratePerSecond float64) *Limiter {
	l := &Limiter{rateLimiter: rate.NewLimiter(rate.Inf, 0)}
	if ratePerSecond > 0 {
		burst := int(math.Ceil(ratePerSecond))
		l.rateLimiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
	}
	if maxConcurrent > 0 {
		l.semaphore = make(chan struct{}, maxConcurrent)
	}
	return l
}

// Acquire waits for a slot.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := l.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	if l.semaphore == nil {
		return func() {}, nil
	}

	select {
	case l.semaphore <- struct{}{}:
		return func() { <-l.semaphore }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire takes a slot without waiting.
func (l *Limiter) TryAcquire() (release func(), ok bool) {
	if l.semaphore == nil {
		if !l.rateLimiter.Allow() {
			return nil, false
		}
		return func() {}, true
	}

	select {
	case l.semaphore <- struct{}{}:
	default:
		return nil, false
	}
	if !l.rateLimiter.Allow() {
		<-l.semaphore
		return nil, false
	}
	return func() { <-l.semaphore }, true
}
