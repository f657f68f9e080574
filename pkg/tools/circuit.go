package tools

import (
	"sync"
	"time"
)

// CircuitState is a point-in-time snapshot of one tool's breaker.
type CircuitState struct {
	Failures    int       `json:"failures"`
	LastFailure time.Time `json:"last_failure,omitempty"`
	Open        bool      `json:"open"`
}

// CircuitBreaker isolates repeatedly failing tools. It is the only state
// shared across concurrent runs, so every transition happens under the lock.
// Closed circuits open after threshold consecutive failures; open circuits
// close again after the cooldown window or on an explicit reset.
type CircuitBreaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	states    map[string]*CircuitState

	// now is indirected for tests.
	now func() time.Time
}

// NewCircuitBreaker creates a breaker opening after threshold consecutive
// failures and cooling down after the given window.
func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &CircuitBreaker{
		threshold: threshold,
		cooldown:  cooldown,
		states:    make(map[string]*CircuitState),
		now:       time.Now,
	}
}

// Allow reports whether a call to the tool may proceed. An open circuit
// whose cooldown has elapsed closes automatically.
func (cb *CircuitBreaker) Allow(tool string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, exists := cb.states[tool]
	if !exists || !state.Open {
		return true
	}
	if cb.now().Sub(state.LastFailure) >= cb.cooldown {
		state.Open = false
		state.Failures = 0
		return true
	}
	return false
}

// RecordFailure counts one failure and opens the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure(tool string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, exists := cb.states[tool]
	if !exists {
		state = &CircuitState{}
		cb.states[tool] = state
	}
	state.Failures++
	state.LastFailure = cb.now()
	if state.Failures >= cb.threshold {
		state.Open = true
	}
}

// RecordSuccess closes the circuit and zeroes the failure count.
func (cb *CircuitBreaker) RecordSuccess(tool string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	delete(cb.states, tool)
}

// Reset explicitly closes the circuit for a tool.
func (cb *CircuitBreaker) Reset(tool string) {
	cb.RecordSuccess(tool)
}

// State returns a snapshot of the tool's breaker.
func (cb *CircuitBreaker) State(tool string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if state, exists := cb.states[tool]; exists {
		return *state
	}
	return CircuitState{}
}
