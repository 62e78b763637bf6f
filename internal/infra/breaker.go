package infra

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is wrapped into errors returned while the breaker is
// cooling down.
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerState is the breaker's position.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreaker trips after maxFails consecutive failures and rejects
// calls until cooldown has passed. It then lets probe calls through;
// enough successes close it again, any failure re-opens it.
type CircuitBreaker struct {
	name     string
	maxFails int
	probes   int
	cooldown time.Duration

	mu       sync.Mutex
	state    BreakerState
	fails    int
	okProbes int
	openedAt time.Time
}

// NewCircuitBreaker builds a closed breaker named for log lines.
func NewCircuitBreaker(name string, maxFails, probes int, cooldown time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:     name,
		maxFails: maxFails,
		probes:   probes,
		cooldown: cooldown,
	}
}

// Allow reports whether a call may proceed. While open it flips to
// half-open once the cooldown has elapsed.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == BreakerOpen {
		if time.Since(cb.openedAt) < cb.cooldown {
			return false
		}
		cb.state = BreakerHalfOpen
		cb.okProbes = 0
		slog.Info("breaker probing", slog.String("name", cb.name))
	}
	return true
}

// Record feeds a call outcome back into the breaker. A nil err counts
// as success.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		switch cb.state {
		case BreakerClosed:
			cb.fails = 0
		case BreakerHalfOpen:
			cb.okProbes++
			if cb.okProbes >= cb.probes {
				cb.reset()
				slog.Info("breaker closed", slog.String("name", cb.name))
			}
		}
		return
	}

	switch cb.state {
	case BreakerClosed:
		cb.fails++
		if cb.fails >= cb.maxFails {
			cb.trip()
		}
	case BreakerHalfOpen:
		// One failed probe sends it straight back to open.
		cb.trip()
	}
}

// State returns the current position.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.reset()
}

func (cb *CircuitBreaker) trip() {
	cb.state = BreakerOpen
	cb.openedAt = time.Now()
	slog.Warn("breaker open",
		slog.String("name", cb.name),
		slog.Int("failures", cb.fails),
		slog.Duration("cooldown", cb.cooldown))
}

func (cb *CircuitBreaker) reset() {
	cb.state = BreakerClosed
	cb.fails = 0
	cb.okProbes = 0
}
