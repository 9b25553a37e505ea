// Package retry provides bounded exponential backoff for provider and
// graph calls.
package retry

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Config controls the backoff schedule.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// JitterFactor spreads delays by +/- this fraction so concurrent
	// turns don't retry in lockstep.
	JitterFactor float64
}

// DefaultConfig is what both LLM clients use: three retries starting at
// 100ms, doubling to a 5s cap, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// delay computes the wait before the attempt+1-th call.
func (c *Config) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if ceiling := float64(c.MaxDelay); d > ceiling {
		d = ceiling
	}
	if c.JitterFactor > 0 {
		d += d * c.JitterFactor * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

// DoWithResult calls fn until it succeeds or the retry budget is spent,
// backing off between attempts. Context cancellation aborts the wait and
// returns ctx.Err alongside the last result.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var result T
	var lastErr error
	for attempt := 0; ; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		result, lastErr = r, err

		if attempt >= cfg.MaxRetries {
			return result, lastErr
		}
		select {
		case <-time.After(cfg.delay(attempt)):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
}

// Do is DoWithResult for functions with no return value.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// RetryableError lets an error declare its own transience; structured LLM
// errors implement it.
type RetryableError interface {
	error
	IsRetryable() bool
}

// transientPatterns match provider and bolt failures worth another attempt.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"timeout",
	"timed out",
	"network is unreachable",
	"transienterror",
	"session expired",
	"leader switched",
	"database unavailable",
	"rate limit",
	"too many requests",
	"service unavailable",
	"overloaded",
	"429",
	"500",
	"502",
	"503",
	"504",
}

// IsRetryable reports whether an error is worth retrying. An error that
// implements RetryableError decides for itself; anything else is matched
// against known transient failure strings.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if r, ok := err.(RetryableError); ok {
		return r.IsRetryable()
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
