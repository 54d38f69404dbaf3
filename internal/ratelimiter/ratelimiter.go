package ratelimiter

import (
	"context"
	"math"

	"golang.org/x/time/rate"
)

// minBurst is the smallest bucket size, so low limits still let a whole
// copy chunk through in one wait.
const minBurst = 64 * 1024

// Limiter throttles a byte stream to a sustained rate using a token bucket.
//
// This implementation wraps golang.org/x/time/rate:
//   - One token is one byte
//   - The bucket holds one second of traffic (at least minBurst bytes)
//   - Waiting respects context cancellation
//
// A nil *Limiter is valid and never waits.
//
// Thread safety:
// All methods are safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
	burst   int
}

// New creates a Limiter allowing bytesPerSecond on average.
//
// Returns nil (unlimited) when bytesPerSecond is not positive.
func New(bytesPerSecond int64) *Limiter {
	if bytesPerSecond <= 0 {
		return nil
	}

	burst := minBurst
	if bytesPerSecond > int64(burst) {
		burst = int(min(bytesPerSecond, math.MaxInt32))
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(bytesPerSecond), burst),
		burst:   burst,
	}
}

// WaitN blocks until n bytes may pass or the context is cancelled.
//
// Requests larger than the bucket are split so they never fail outright.
func (l *Limiter) WaitN(ctx context.Context, n int) error {
	if l == nil {
		return nil
	}

	for n > 0 {
		step := min(n, l.burst)
		if err := l.limiter.WaitN(ctx, step); err != nil {
			return err
		}
		n -= step
	}
	return nil
}

// Limit returns the configured rate in bytes per second (0 = unlimited).
func (l *Limiter) Limit() int64 {
	if l == nil {
		return 0
	}
	return int64(l.limiter.Limit())
}
