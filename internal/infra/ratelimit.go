package infra

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket. Tokens are derived lazily from the
// time elapsed since the last take, so there is no refill goroutine.
type RateLimiter struct {
	mu     sync.Mutex
	tokens float64
	burst  float64
	rate   float64
	last   time.Time
}

// NewRateLimiter allows bursts of burst calls, refilled at perSecond.
func NewRateLimiter(burst int, perSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens: float64(burst),
		burst:  float64(burst),
		rate:   perSecond,
		last:   time.Now(),
	}
}

// TryAcquire takes a token if one is available, without blocking.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance(time.Now())
	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		r.advance(time.Now())
		if r.tokens >= 1 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		shortfall := 1 - r.tokens
		r.mu.Unlock()

		timer := time.NewTimer(time.Duration(shortfall / r.rate * float64(time.Second)))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// advance credits tokens for the elapsed time. Caller holds the lock.
func (r *RateLimiter) advance(now time.Time) {
	r.tokens += now.Sub(r.last).Seconds() * r.rate
	if r.tokens > r.burst {
		r.tokens = r.burst
	}
	r.last = now
}

var (
	marketLimiter     *RateLimiter
	marketLimiterOnce sync.Once
)

// GetMarketLimiter returns the limiter shared by all exchange market
// data calls: burst 5, refill 10/s, well under the published weight
// limits so a busy watchlist cannot draw an IP ban.
func GetMarketLimiter() *RateLimiter {
	marketLimiterOnce.Do(func() {
		marketLimiter = NewRateLimiter(5, 10)
	})
	return marketLimiter
}
