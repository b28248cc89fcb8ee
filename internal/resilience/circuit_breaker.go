package resilience

import (
	"sync"
	"time"
)

// CircuitBreakerState is the breaker's current mode.
type CircuitBreakerState int32

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreakerConfig holds breaker thresholds.
type CircuitBreakerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
}

// CircuitBreaker guards calls to an external service: after enough
// consecutive failures it opens and rejects calls until the recovery timeout
// elapses, then probes in half-open mode.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu          sync.Mutex
	state       CircuitBreakerState
	failures    int
	successes   int
	nextAttempt time.Time
}

// NewCircuitBreaker creates a breaker, filling zero config fields with
// defaults.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout == 0 {
		config.RecoveryTimeout = 30 * time.Second
	}
	if config.SuccessThreshold == 0 {
		config.SuccessThreshold = 3
	}
	return &CircuitBreaker{config: config, state: StateClosed}
}

// Call runs fn under breaker protection.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if time.Now().Before(cb.nextAttempt) {
			cb.mu.Unlock()
			return &CircuitBreakerError{State: StateOpen}
		}
		cb.state = StateHalfOpen
		cb.successes = 0
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.successes = 0
	if cb.failures >= cb.config.FailureThreshold || cb.state == StateHalfOpen {
		cb.state = StateOpen
		cb.nextAttempt = time.Now().Add(cb.config.RecoveryTimeout)
	}
}

func (cb *CircuitBreaker) onSuccess() {
	cb.failures = 0
	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = StateClosed
		}
	}
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.successes = 0
}

// CircuitBreakerError is returned when a call is rejected by an open breaker.
type CircuitBreakerError struct {
	State CircuitBreakerState
}

func (e *CircuitBreakerError) Error() string {
	return "circuit breaker is " + e.State.String()
}
