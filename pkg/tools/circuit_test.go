package tools

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitOpensAfterThresholdFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.RecordFailure("patch")
	cb.RecordFailure("patch")
	assert.True(t, cb.Allow("patch"), "circuit should stay closed below the threshold")

	cb.RecordFailure("patch")
	assert.False(t, cb.Allow("patch"), "circuit should open at the threshold")
	assert.True(t, cb.State("patch").Open)
}

func TestCircuitIsPerTool(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		cb.RecordFailure("patch")
	}
	assert.False(t, cb.Allow("patch"))
	assert.True(t, cb.Allow("read"))
}

func TestCircuitClosesAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	current := time.Now()
	cb.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		cb.RecordFailure("patch")
	}
	assert.False(t, cb.Allow("patch"))

	current = current.Add(59 * time.Second)
	assert.False(t, cb.Allow("patch"), "cooldown has not elapsed yet")

	current = current.Add(2 * time.Second)
	assert.True(t, cb.Allow("patch"), "cooldown elapsed, circuit should close")
	assert.Equal(t, 0, cb.State("patch").Failures)
}

func TestCircuitSuccessResetsState(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	cb.RecordFailure("patch")
	cb.RecordFailure("patch")
	cb.RecordSuccess("patch")

	state := cb.State("patch")
	assert.Equal(t, 0, state.Failures)
	assert.False(t, state.Open)

	// Failures are consecutive: the count starts over.
	cb.RecordFailure("patch")
	assert.True(t, cb.Allow("patch"))
}

func TestCircuitExplicitReset(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 5; i++ {
		cb.RecordFailure("overwrite")
	}
	assert.False(t, cb.Allow("overwrite"))

	cb.Reset("overwrite")
	assert.True(t, cb.Allow("overwrite"))
}
