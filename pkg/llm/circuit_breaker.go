package llm

import (
	"fmt"
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current mode.
type BreakerState int

const (
	// BreakerClosed passes requests through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects requests until the cooldown elapses.
	BreakerOpen
	// BreakerProbing lets exactly one request test the provider.
	BreakerProbing
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes when the breaker trips and recovers.
type CircuitBreakerConfig struct {
	// Threshold is the consecutive-failure count that trips the breaker.
	Threshold int
	// ResetAfter is the cooldown before a probe request is allowed.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig returns the defaults both provider clients use.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker guards a provider endpoint: consecutive failures trip it
// open, a cooldown later a single probe may pass, and one success closes it
// again. A tripped breaker fails pipeline turns fast instead of stacking
// timeouts behind a dead provider.
type CircuitBreaker struct {
	mu sync.Mutex

	cfg         CircuitBreakerConfig
	state       BreakerState
	failures    int
	lastFailure time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, state: BreakerClosed}
}

// Allow reports whether a request may proceed. The returned error explains
// the rejection when it may not.
func (cb *CircuitBreaker) Allow() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerClosed:
		return true, nil
	case BreakerOpen:
		if time.Since(cb.lastFailure) > cb.cfg.ResetAfter {
			cb.state = BreakerProbing
			return true, nil
		}
		return false, fmt.Errorf("circuit breaker open: provider failed %d consecutive calls, last %v ago",
			cb.failures, time.Since(cb.lastFailure).Round(time.Second))
	case BreakerProbing:
		// The probe slot is taken.
		return false, fmt.Errorf("circuit breaker probing: waiting on a recovery check")
	default:
		return false, fmt.Errorf("circuit breaker in unknown state %v", cb.state)
	}
}

// RecordSuccess closes the breaker and clears the failure streak.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = BreakerClosed
}

// RecordFailure extends the failure streak; a failed probe reopens the
// breaker immediately, and a closed breaker trips at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == BreakerProbing || cb.failures >= cb.cfg.Threshold {
		cb.state = BreakerOpen
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
