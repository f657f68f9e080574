package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimWithVerifiedChangesCompletes(t *testing.T) {
	d := NewDetector()
	dec := d.Evaluate(Input{
		OracleText:   "The validation is in place. GOAL ACHIEVED",
		HadToolCall:  false,
		ChangesSoFar: 1,
		Iteration:    1,
	})

	assert.True(t, dec.Complete)
	assert.Equal(t, "claimed complete with verified changes", dec.Reason)
	assert.Greater(t, dec.Confidence, 0.7)
	assert.InDelta(t, 0.9, dec.Signals[SignalClaim], 0.001)
}

func TestChangesAndNoToolCallCompletes(t *testing.T) {
	d := NewDetector()
	dec := d.Evaluate(Input{
		OracleText:   "Here is a summary of what changed.",
		HadToolCall:  false,
		ChangesSoFar: 2,
		Iteration:    3,
	})

	assert.True(t, dec.Complete)
	assert.Equal(t, "changes made, no further tool calls", dec.Reason)
}

func TestStabilizedContentCompletes(t *testing.T) {
	d := NewDetector()
	dec := d.Evaluate(Input{
		OracleText:      "[READ_DOCUMENT]",
		HadToolCall:     true,
		ChangesSoFar:    1,
		Iteration:       2,
		PreviousContent: "same text",
		CurrentContent:  "same text",
	})

	assert.True(t, dec.Complete)
	assert.Equal(t, "content stabilized after changes", dec.Reason)
}

func TestStrongClaimAfterFirstIterationCompletes(t *testing.T) {
	d := NewDetector()
	dec := d.Evaluate(Input{
		OracleText:  "The task is complete.",
		HadToolCall: true,
		Iteration:   2,
	})

	assert.True(t, dec.Complete)
	assert.Equal(t, "strong completion claim after first iteration", dec.Reason)
}

func TestPrematureClaimRejectedRegardlessOfPhraseStrength(t *testing.T) {
	d := NewDetector()
	for _, text := range []string{
		"GOAL ACHIEVED",
		"The task is complete.",
		"This should be done now.",
	} {
		dec := d.Evaluate(Input{
			OracleText:   text,
			HadToolCall:  false,
			ChangesSoFar: 0,
			Iteration:    0,
		})
		assert.False(t, dec.Complete, "text %q", text)
		assert.LessOrEqual(t, dec.Confidence, 0.3, "text %q", text)
		assert.Equal(t, "completion claimed before any work was done", dec.Reason)
	}
}

func TestInProgressByDefault(t *testing.T) {
	d := NewDetector()
	dec := d.Evaluate(Input{
		OracleText:  "Let me look at the function first. [READ_DOCUMENT]",
		HadToolCall: true,
		Iteration:   0,
	})

	assert.False(t, dec.Complete)
	assert.Equal(t, "goal still in progress", dec.Reason)
}

func TestFirstIterationNeverCountsNoToolCallOrStability(t *testing.T) {
	d := NewDetector()
	dec := d.Evaluate(Input{
		OracleText:      "working on it",
		HadToolCall:     false,
		Iteration:       0,
		PreviousContent: "x",
		CurrentContent:  "x",
	})

	assert.Zero(t, dec.Signals[SignalNoToolCall])
	assert.Zero(t, dec.Signals[SignalStabilized])
}

func TestEvaluateIsIdempotent(t *testing.T) {
	d := NewDetector()
	in := Input{
		OracleText:   "All changes have been made. GOAL ACHIEVED",
		HadToolCall:  false,
		ChangesSoFar: 3,
		Iteration:    4,
	}

	first := d.Evaluate(in)
	for i := 0; i < 5; i++ {
		again := d.Evaluate(in)
		assert.Equal(t, first.Complete, again.Complete)
		assert.Equal(t, first.Confidence, again.Confidence)
		assert.Equal(t, first.Reason, again.Reason)
		assert.Equal(t, first.Signals, again.Signals)
	}
}

func TestSignalsRetainedInDecision(t *testing.T) {
	d := NewDetector()
	dec := d.Evaluate(Input{OracleText: "still going", HadToolCall: true, Iteration: 1})

	require.Len(t, dec.Signals, 4)
	for _, key := range []string{SignalClaim, SignalNoToolCall, SignalChanges, SignalStabilized} {
		_, ok := dec.Signals[key]
		assert.True(t, ok, "missing signal %s", key)
	}
}

func TestClaimStrengthTiers(t *testing.T) {
	assert.InDelta(t, 0.9, claimStrength("goal achieved"), 0.001)
	assert.InDelta(t, 0.7, claimStrength("the edit is complete"), 0.001)
	assert.InDelta(t, 0.5, claimStrength("this should be done"), 0.001)
	assert.Zero(t, claimStrength("searching for the function"))
}
