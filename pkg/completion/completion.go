// Package completion decides whether an orchestration run has finished.
// No single signal is trusted on its own: an explicit claim from the model,
// the absence of further tool calls, verified document changes, and content
// stabilization are each weak evidence, combined with fixed weights into one
// decision.
package completion

import (
	"strings"

	"github.com/quillworks/autoedit/pkg/types"
)

// ExplicitMarker is the phrase the system prompt asks the model to emit when
// it considers the goal fully satisfied.
const ExplicitMarker = "GOAL ACHIEVED"

// Signal weights. They sum to 1.0 so the combined confidence stays in [0,1].
const (
	weightClaim      = 0.35
	weightNoToolCall = 0.20
	weightChanges    = 0.30
	weightStabilized = 0.15
)

// Signal name keys kept in CompletionDecision.Signals.
const (
	SignalClaim      = "explicit_claim"
	SignalNoToolCall = "no_tool_call"
	SignalChanges    = "verified_changes"
	SignalStabilized = "content_stabilized"
)

// rejectedCap limits the confidence reported when a premature claim is
// rejected, so callers never mistake the rejection for near-completion.
const rejectedCap = 0.3

// ReasonPrematureClaim marks the rejection of a completion claim made
// before any change was applied. Callers key corrective behavior off it.
const ReasonPrematureClaim = "completion claimed before any work was done"

var highPhrases = []string{
	strings.ToLower(ExplicitMarker),
	"goal has been achieved",
	"goal is achieved",
}

var mediumPhrases = []string{
	"task is complete",
	"task complete",
	"edit is complete",
	"all changes have been made",
	"all requested changes",
	"successfully completed",
	"the document now",
	"finished making the changes",
}

var softPhrases = []string{
	"should be done",
	"should now be",
	"i believe the",
	"appears to be complete",
	"that completes",
	"nothing further",
}

// Input carries the per-iteration facts the detector evaluates.
type Input struct {
	OracleText      string
	HadToolCall     bool
	ChangesSoFar    int
	Iteration       int
	PreviousContent string
	CurrentContent  string
}

// Detector is stateless; a single instance serves any number of runs.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Evaluate applies the weighted signals and the ordered decision rules.
// The same input always yields the same decision.
func (d *Detector) Evaluate(in Input) types.CompletionDecision {
	claimScore := claimStrength(in.OracleText)
	noToolCall := !in.HadToolCall && in.Iteration > 0
	hasChanges := in.ChangesSoFar > 0
	stabilized := in.Iteration > 0 && in.PreviousContent == in.CurrentContent

	signals := map[string]float64{
		SignalClaim:      claimScore,
		SignalNoToolCall: boolSignal(noToolCall),
		SignalChanges:    boolSignal(hasChanges),
		SignalStabilized: boolSignal(stabilized),
	}

	confidence := weightClaim*claimScore +
		weightNoToolCall*signals[SignalNoToolCall] +
		weightChanges*signals[SignalChanges] +
		weightStabilized*signals[SignalStabilized]

	decision := types.CompletionDecision{Confidence: confidence, Signals: signals}

	switch {
	case claimScore > 0 && hasChanges:
		decision.Complete = true
		decision.Reason = "claimed complete with verified changes"
	case hasChanges && noToolCall:
		decision.Complete = true
		decision.Reason = "changes made, no further tool calls"
	case stabilized && hasChanges:
		decision.Complete = true
		decision.Reason = "content stabilized after changes"
	case claimScore >= 0.7 && in.Iteration > 0:
		decision.Complete = true
		decision.Reason = "strong completion claim after first iteration"
	case claimScore > 0 && !hasChanges && in.Iteration == 0:
		decision.Complete = false
		decision.Reason = ReasonPrematureClaim
		if decision.Confidence > rejectedCap {
			decision.Confidence = rejectedCap
		}
	default:
		decision.Complete = false
		decision.Reason = "goal still in progress"
	}
	return decision
}

// claimStrength returns the tiered score of the strongest completion phrase
// found in the text, or 0 when none appears.
func claimStrength(text string) float64 {
	lower := strings.ToLower(text)
	for _, p := range highPhrases {
		if strings.Contains(lower, p) {
			return 0.9
		}
	}
	for _, p := range mediumPhrases {
		if strings.Contains(lower, p) {
			return 0.7
		}
	}
	for _, p := range softPhrases {
		if strings.Contains(lower, p) {
			return 0.5
		}
	}
	return 0
}

func boolSignal(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
