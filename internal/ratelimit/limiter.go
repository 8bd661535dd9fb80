// Package ratelimit throttles outgoing uploads with a token bucket.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dart-platform/dart-cli/internal/logging"
)

const (
	// warnAfter is the expected wait above which a throttling warning is logged.
	warnAfter = 2 * time.Second
	// warnEvery limits how often the throttling warning repeats.
	warnEvery = 10 * time.Second
)

// RateLimiter implements a token bucket rate limiter.
// It allows bursts up to maxTokens, then refills at refillRate tokens/second.
type RateLimiter struct {
	tokens       float64
	maxTokens    float64
	refillRate   float64
	lastRefill   time.Time
	lastWarnTime time.Time
	logger       *logging.Logger
	mu           sync.Mutex
}

// NewRateLimiter creates a limiter that admits perSecond uploads per second
// with bursts of up to burst. A burst below 1 is raised to 1.
func NewRateLimiter(perSecond, burst float64, logger *logging.Logger) (*RateLimiter, error) {
	if perSecond <= 0 {
		return nil, fmt.Errorf("rate must be positive, got %g", perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &RateLimiter{
		tokens:     burst,
		maxTokens:  burst,
		refillRate: perSecond,
		lastRefill: time.Now(),
		logger:     logger,
	}, nil
}

// Wait blocks until a token is available or ctx is cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.tryAcquire() {
		return nil
	}

	if wait := rl.timeUntilNextToken(); wait > warnAfter {
		rl.mu.Lock()
		if time.Since(rl.lastWarnTime) > warnEvery {
			rl.logger.Warn().Msgf("Rate limited: waiting ~%.1fs before the next upload", wait.Seconds())
			rl.lastWarnTime = time.Now()
		}
		rl.mu.Unlock()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rl.tryAcquire() {
			return nil
		}

		timer := time.NewTimer(rl.timeUntilNextToken())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAcquire takes one token without blocking.
func (rl *RateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())
	if rl.tokens >= 1.0 {
		rl.tokens -= 1.0
		return true
	}
	return false
}

// refill must be called with mu held.
func (rl *RateLimiter) refill(now time.Time) {
	rl.tokens += now.Sub(rl.lastRefill).Seconds() * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now
}

func (rl *RateLimiter) timeUntilNextToken() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	needed := 1.0 - rl.tokens
	if needed <= 0 {
		return 0
	}
	return time.Duration(needed / rl.refillRate * float64(time.Second))
}

// available returns the current number of tokens.
func (rl *RateLimiter) available() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill(time.Now())
	return rl.tokens
}
