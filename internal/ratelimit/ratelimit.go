// Package ratelimit throttles outbound calls to rate limited HTTP APIs.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/fd1az/quote-engine/internal/apperror"
)

// Limiter is a token bucket sized in requests per minute.
type Limiter struct {
	name    string
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerMinute with a burst of a tenth of that.
// A non-positive rate disables limiting.
func New(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{name: name, limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		name:    name,
		limiter: rate.NewLimiter(perMinute(requestsPerMinute), burst),
	}
}

// Name returns the upstream the limiter guards.
func (l *Limiter) Name() string {
	return l.name
}

// Wait blocks until a token is available. If the wait would outlast the
// context deadline it fails fast with RATE_LIMITED instead of sleeping.
func (l *Limiter) Wait(ctx context.Context) error {
	r := l.limiter.Reserve()
	if !r.OK() {
		return l.limited(nil)
	}

	delay := r.Delay()
	if delay == 0 {
		return nil
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < delay {
		r.Cancel()
		return l.limited(nil)
	}

	t := time.NewTimer(delay)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		r.Cancel()
		return l.limited(ctx.Err())
	}
}

// Allow reports whether a call may happen now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// SetLimit updates the rate.
func (l *Limiter) SetLimit(requestsPerMinute int) {
	if requestsPerMinute <= 0 {
		l.limiter.SetLimit(rate.Inf)
		return
	}
	l.limiter.SetLimit(perMinute(requestsPerMinute))
}

func (l *Limiter) limited(cause error) error {
	opts := []apperror.Option{apperror.WithContext(l.name)}
	if cause != nil {
		opts = append(opts, apperror.WithCause(cause))
	}
	return apperror.New(apperror.CodeRateLimited, opts...)
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}
