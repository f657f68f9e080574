package orchestration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillworks/autoedit/pkg/config"
	"github.com/quillworks/autoedit/pkg/oracle"
	"github.com/quillworks/autoedit/pkg/types"
)

const patchResponse = `Adding a guard clause to validate the input.
[PATCH_DOCUMENT]
<<<<<<< SEARCH
return x
=======
if (!x) { throw new Error("x required") }; return x
>>>>>>> REPLACE
[/PATCH_DOCUMENT]`

func jsDoc() types.DocumentState {
	return types.DocumentState{
		Title:    "f.js",
		Language: "javascript",
		Content:  "function f(x){return x}",
	}
}

func newTestRunner(t *testing.T, o oracle.Oracle, cfg *config.Config) *Runner {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	r, err := NewRunner(Dependencies{Oracle: o, Config: cfg})
	require.NoError(t, err)
	return r
}

func TestPatchThenGoalAchievedCompletesWithOneChange(t *testing.T) {
	o := oracle.NewScripted(patchResponse, "GOAL ACHIEVED")
	r := newTestRunner(t, o, nil)

	res := r.Run(context.Background(), "add input validation to the function", jsDoc())

	assert.Equal(t, types.RunSuccess, res.Status)
	assert.Equal(t, 1, res.Changes)
	assert.Contains(t, res.Final.Content, "throw new Error")
	require.Len(t, res.Iterations, 2)
	assert.Equal(t, types.GoalInProgress, res.Iterations[0].Status)
	require.NotNil(t, res.Iterations[0].Verification)
	assert.Equal(t, 1, res.Iterations[0].Verification.LinesRemoved)
	assert.Equal(t, types.GoalAchieved, res.Iterations[1].Status)
	require.Len(t, res.Checkpoints, 1)
	assert.Equal(t, res.Final.Content, res.Checkpoints[0].State.Content)
}

func TestPrematureClaimRejectedAndRunContinues(t *testing.T) {
	o := oracle.NewScripted("GOAL ACHIEVED", patchResponse, "GOAL ACHIEVED")
	r := newTestRunner(t, o, nil)

	res := r.Run(context.Background(), "add input validation to the function", jsDoc())

	assert.Equal(t, types.RunSuccess, res.Status)
	assert.Equal(t, 1, res.Changes)
	require.Len(t, res.Iterations, 3)
	assert.Equal(t, types.GoalInProgress, res.Iterations[0].Status)
	assert.Nil(t, res.Iterations[0].Result)

	// The corrective message demanding a real edit reached the oracle.
	calls := o.Calls()
	require.GreaterOrEqual(t, len(calls), 2)
	second := calls[1]
	assert.Equal(t, prematureClaimMessage, second[len(second)-1].Content)
}

func TestStructuralFailureInjectsCorrectiveGuidance(t *testing.T) {
	badPatch := `[PATCH_DOCUMENT]
<<<<<<< SEARCH
this text is not in the document
=======
replacement
>>>>>>> REPLACE
[/PATCH_DOCUMENT]`
	o := oracle.NewScripted(badPatch, patchResponse, "GOAL ACHIEVED")
	r := newTestRunner(t, o, nil)

	res := r.Run(context.Background(), "add input validation to the function", jsDoc())

	assert.Equal(t, types.RunSuccess, res.Status)
	assert.Equal(t, 1, res.Changes)

	calls := o.Calls()
	require.GreaterOrEqual(t, len(calls), 2)
	corrective := calls[1][len(calls[1])-1].Content
	assert.Contains(t, corrective, "could not be applied")
	assert.Contains(t, corrective, "function f(x){return x}")
}

func TestTotalTimeoutEndsBlockedPreservingRecords(t *testing.T) {
	o := &blockingAfterOracle{responses: []string{patchResponse}}
	cfg := config.Default()
	cfg.TotalTimeoutSeconds = 1
	r := newTestRunner(t, o, cfg)

	res := r.Run(context.Background(), "add input validation to the function", jsDoc())

	assert.Equal(t, types.RunBlocked, res.Status)
	assert.Contains(t, res.Error, "deadline")
	require.Len(t, res.Iterations, 1)
	require.Len(t, res.Checkpoints, 1)
	assert.Equal(t, 1, res.Changes)
	assert.Contains(t, res.Final.Content, "throw new Error")
}

func TestNoEditIntendedNeverCallsOracle(t *testing.T) {
	o := oracle.NewScripted()
	r := newTestRunner(t, o, nil)

	doc := jsDoc()
	res := r.Run(context.Background(), "what does this function do?", doc)

	assert.Equal(t, types.RunNoEdit, res.Status)
	assert.Zero(t, o.CallCount())
	assert.Equal(t, doc.Content, res.Final.Content)
	assert.Empty(t, res.Iterations)
}

func TestParseFailureWithNoChangesBlocks(t *testing.T) {
	o := oracle.NewScripted("I will delete it. [DELETE_DOCUMENT]")
	r := newTestRunner(t, o, nil)

	res := r.Run(context.Background(), "remove the second paragraph", jsDoc())

	assert.Equal(t, types.RunBlocked, res.Status)
	assert.Contains(t, res.Error, "unparseable")
	assert.Zero(t, res.Changes)
}

func TestParseFailureAfterChangesIsImplicitCompletion(t *testing.T) {
	o := oracle.NewScripted(patchResponse, "The function now validates its input. [WRAP_UP]")
	r := newTestRunner(t, o, nil)

	res := r.Run(context.Background(), "add input validation to the function", jsDoc())

	assert.Equal(t, types.RunSuccess, res.Status)
	assert.Equal(t, 1, res.Changes)
}

func TestOracleFailureAfterRetryEndsInError(t *testing.T) {
	o := oracle.NewScripted().FailAt(0, oracle.ErrUnavailable).FailAt(1, oracle.ErrUnavailable)
	r := newTestRunner(t, o, nil)

	res := r.Run(context.Background(), "add input validation to the function", jsDoc())

	assert.Equal(t, types.RunError, res.Status)
	assert.Contains(t, res.Error, "oracle call failed")
	assert.Equal(t, 2, o.CallCount())
}

func TestOracleRecoversOnSecondAttempt(t *testing.T) {
	// The first call fails and consumes a script slot; the retry and the
	// following iteration succeed.
	o := oracle.NewScripted("unused", patchResponse, "GOAL ACHIEVED").FailAt(0, oracle.ErrUnavailable)
	r := newTestRunner(t, o, nil)

	res := r.Run(context.Background(), "add input validation to the function", jsDoc())

	assert.Equal(t, types.RunSuccess, res.Status)
	assert.Equal(t, 1, res.Changes)
	assert.Equal(t, 3, o.CallCount())
}

func TestIterationBudgetExhaustedBlocks(t *testing.T) {
	cfg := config.Default()
	cfg.MaxIterations = 2
	o := oracle.NewScripted("[READ_DOCUMENT]", "[READ_DOCUMENT]")
	r := newTestRunner(t, o, cfg)

	res := r.Run(context.Background(), "fix the wording across the document", jsDoc())

	assert.Equal(t, types.RunBlocked, res.Status)
	assert.Contains(t, res.Error, "iteration budget")
	assert.Len(t, res.Iterations, 2)
}

func TestTranscriptTrimKeepsSystemAndRecentTurns(t *testing.T) {
	msgs := []oracle.Message{
		{Role: oracle.RoleSystem, Content: "sys"},
		{Role: oracle.RoleUser, Content: "opening"},
	}
	for i := 0; i < 10; i++ {
		msgs = append(msgs, oracle.Message{Role: oracle.RoleAssistant, Content: "turn"})
	}

	trimmed := trimTranscript(msgs, 4)
	require.Len(t, trimmed, 6)
	assert.Equal(t, "sys", trimmed[0].Content)
	assert.Equal(t, "opening", trimmed[1].Content)
}

func TestPlanSubGoals(t *testing.T) {
	goal := types.EditGoal{Description: "fix the typo; update the date, and reword the closing"}
	subGoals := planSubGoals(goal)
	assert.Len(t, subGoals, 3)

	single := planSubGoals(types.EditGoal{Description: "fix the typo"})
	assert.Equal(t, []string{"fix the typo"}, single)
}

// blockingAfterOracle answers its scripted responses, then blocks until the
// caller's context expires.
type blockingAfterOracle struct {
	responses []string
	calls     int
}

func (b *blockingAfterOracle) Generate(ctx context.Context, _ []oracle.Message, _ oracle.Options) (string, error) {
	if b.calls < len(b.responses) {
		resp := b.responses[b.calls]
		b.calls++
		return resp, nil
	}
	<-ctx.Done()
	return "", ctx.Err()
}
