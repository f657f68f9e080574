package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quillworks/autoedit/pkg/checkpoint"
	"github.com/quillworks/autoedit/pkg/completion"
	"github.com/quillworks/autoedit/pkg/events"
	"github.com/quillworks/autoedit/pkg/intent"
	"github.com/quillworks/autoedit/pkg/oracle"
	"github.com/quillworks/autoedit/pkg/parser"
	"github.com/quillworks/autoedit/pkg/types"
)

// Runner drives one editing run at a time per call; a single Runner may
// serve concurrent Run calls because all per-run state lives on the stack.
type Runner struct {
	deps Dependencies
}

func NewRunner(deps Dependencies) (*Runner, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	deps.applyDefaults()
	return &Runner{deps: deps}, nil
}

// run bundles the mutable state of one run.
type run struct {
	id          string
	goal        types.EditGoal
	subGoals    []string
	doc         types.DocumentState
	prevContent string
	transcript  []oracle.Message
	records     []types.IterationRecord
	checkpoints *checkpoint.Manager
	changes     int
	started     time.Time
	phase       types.Phase
}

// Run executes the full state machine for one instruction against one
// document and always returns a result, never panics or hangs past its
// deadlines. The returned document is the last-known-good state even when
// the run ends blocked or in error.
func (r *Runner) Run(ctx context.Context, instruction string, doc types.DocumentState) *types.RunResult {
	st := &run{
		id:          uuid.NewString(),
		doc:         doc,
		checkpoints: checkpoint.NewManager(r.deps.Config.MaxCheckpoints),
		started:     time.Now(),
		phase:       types.PhaseIdle,
	}
	r.publish(st, events.EventRunStarted, map[string]any{
		"instruction": instruction,
		"document":    doc.Title,
	})

	// detecting: decide whether an edit is warranted at all.
	r.setPhase(st, types.PhaseDetecting)
	intentRes := r.detectIntent(ctx, instruction, doc)
	if !intentRes.ShouldEdit || intentRes.Confidence < r.deps.Config.IntentThreshold {
		r.logf("run %s: no edit intended (should_edit=%v confidence=%.2f)",
			st.id, intentRes.ShouldEdit, intentRes.Confidence)
		return r.finish(st, types.RunNoEdit, "")
	}
	st.goal = intentRes.Goal

	// planning: decompose for prompting and progress display.
	r.setPhase(st, types.PhasePlanning)
	st.subGoals = planSubGoals(st.goal)

	// executing: the iteration loop under the total-run deadline.
	r.setPhase(st, types.PhaseExecuting)
	totalCtx, cancel := context.WithTimeout(ctx, r.deps.Config.TotalTimeout())
	defer cancel()

	st.transcript = []oracle.Message{
		{Role: oracle.RoleSystem, Content: systemPrompt},
		{Role: oracle.RoleUser, Content: buildOpeningPrompt(st.goal, st.subGoals, st.doc, r.deps.Config.MaxPromptChars)},
	}

	status, errMsg := r.iterate(totalCtx, st)
	return r.finish(st, status, errMsg)
}

func (r *Runner) iterate(ctx context.Context, st *run) (types.RunStatus, string) {
	for i := 0; i < r.deps.Config.MaxIterations; i++ {
		if ctx.Err() != nil {
			return types.RunBlocked, "total run deadline exceeded"
		}
		iterStart := time.Now()
		r.publish(st, events.EventIterationStarted, map[string]any{"iteration": i})

		response, err := r.callOracle(ctx, st)
		if err != nil {
			if ctx.Err() != nil {
				return types.RunBlocked, "total run deadline exceeded during oracle call"
			}
			return types.RunError, fmt.Sprintf("oracle call failed: %v", err)
		}
		st.transcript = append(st.transcript, oracle.Message{Role: oracle.RoleAssistant, Content: response})

		parsed := r.deps.Parser.Parse(response)
		if parsed.Rationale != "" {
			r.publish(st, events.EventRationale, parsed.Rationale)
		}

		decision := r.deps.Completion.Evaluate(completion.Input{
			OracleText:      response,
			HadToolCall:     parsed.HasToolCall(),
			ChangesSoFar:    st.changes,
			Iteration:       i,
			PreviousContent: st.prevContent,
			CurrentContent:  st.doc.Content,
		})
		r.publish(st, events.EventCompletionDecision, decision)

		record := types.IterationRecord{
			Step:       i,
			Rationale:  parsed.Rationale,
			ToolCall:   parsed.Call,
			Completion: &decision,
			Status:     types.GoalInProgress,
		}

		if decision.Complete {
			record.Status = types.GoalAchieved
			record.Duration = time.Since(iterStart)
			st.records = append(st.records, record)
			return types.RunSuccess, ""
		}

		if decision.Reason == completion.ReasonPrematureClaim && !parsed.HasToolCall() {
			// Premature victory declaration: demand an actual edit.
			r.addUserTurn(st, prematureClaimMessage)
			record.Duration = time.Since(iterStart)
			st.records = append(st.records, record)
			continue
		}

		if !parsed.HasToolCall() {
			if malformed(parsed.Failure) {
				if st.changes > 0 {
					// The model is done mutating and just talking.
					record.Status = types.GoalAchieved
					record.Duration = time.Since(iterStart)
					st.records = append(st.records, record)
					return types.RunSuccess, ""
				}
				record.Status = types.GoalBlocked
				record.Duration = time.Since(iterStart)
				st.records = append(st.records, record)
				return types.RunBlocked, fmt.Sprintf("unparseable oracle output before any change: %s", parsed.Failure.Reason)
			}
			r.addUserTurn(st, noToolCallMessage)
			record.Duration = time.Since(iterStart)
			st.records = append(st.records, record)
			continue
		}

		r.executeCall(ctx, st, i, parsed.Call, &record)
		record.Duration = time.Since(iterStart)
		st.records = append(st.records, record)
		st.transcript = trimTranscript(st.transcript, r.deps.Config.TranscriptKeepTurns)
	}
	return types.RunBlocked, fmt.Sprintf("iteration budget of %d exhausted", r.deps.Config.MaxIterations)
}

// executeCall dispatches one tool call and folds its outcome into the run
// state, the transcript and the iteration record.
func (r *Runner) executeCall(ctx context.Context, st *run, iteration int, call *types.ToolCall, record *types.IterationRecord) {
	r.publish(st, events.EventToolCall, call)
	st.prevContent = st.doc.Content

	result := r.deps.Executor.Execute(ctx, call, st.doc)
	record.Result = result
	r.publish(st, events.EventToolResult, result)

	if !result.Success {
		if result.Structural {
			r.addUserTurn(st, structuralFailureMessage(result, st.doc, r.deps.Config.MaxPromptChars))
		} else {
			r.addUserTurn(st, resultMessage(call, result, nil))
		}
		return
	}

	var verification *types.VerificationResult
	if result.NewContent != nil {
		before := st.doc.Content
		st.doc.Content = *result.NewContent
		st.changes++

		v := r.deps.Verifier.Verify(st.goal, st.doc, before, st.doc.Content)
		verification = &v
		record.Verification = verification
		r.publish(st, events.EventVerification, verification)

		cp := st.checkpoints.Create(st.doc, iteration, call.Describe())
		r.publish(st, events.EventCheckpointCreated, map[string]any{
			"iteration":   cp.Iteration,
			"description": cp.Description,
		})
		r.publish(st, events.EventDocumentSnapshot, map[string]any{
			"iteration": iteration,
			"length":    len(st.doc.Content),
		})
	}

	r.addUserTurn(st, resultMessage(call, result, verification))
}

// callOracle performs the per-iteration bounded oracle call, retrying once
// on failure before giving up.
func (r *Runner) callOracle(ctx context.Context, st *run) (string, error) {
	opts := oracle.Options{
		Model:       r.deps.Config.Model,
		Temperature: r.deps.Config.Temperature,
	}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		iterCtx, cancel := context.WithTimeout(ctx, r.deps.Config.IterationTimeout())
		response, err := r.deps.Oracle.Generate(iterCtx, st.transcript, opts)
		cancel()
		if err == nil {
			return response, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		r.logf("run %s: oracle attempt %d failed: %v", st.id, attempt+1, err)
	}
	if lastErr == nil {
		lastErr = oracle.ErrUnavailable
	}
	return "", lastErr
}

func (r *Runner) detectIntent(ctx context.Context, instruction string, doc types.DocumentState) intent.Result {
	if r.deps.Intent == nil {
		return intent.Heuristic(instruction)
	}
	iterCtx, cancel := context.WithTimeout(ctx, r.deps.Config.IterationTimeout())
	defer cancel()
	return r.deps.Intent.Detect(iterCtx, instruction, doc)
}

// malformed reports whether a parse failure was an actual broken tool
// invocation, as opposed to a response that simply contained none.
func malformed(f *parser.Failure) bool {
	return f != nil && f.Reason != parser.ReasonNoToolCall
}

func (r *Runner) addUserTurn(st *run, content string) {
	st.transcript = append(st.transcript, oracle.Message{Role: oracle.RoleUser, Content: content})
}

func (r *Runner) setPhase(st *run, phase types.Phase) {
	st.phase = phase
	r.publish(st, events.EventPhaseChanged, string(phase))
}

// finish assembles the terminal result and emits the closing event. Phase
// transitions to the terminal state matching the status.
func (r *Runner) finish(st *run, status types.RunStatus, errMsg string) *types.RunResult {
	switch status {
	case types.RunSuccess, types.RunNoEdit:
		r.setPhase(st, types.PhaseComplete)
	case types.RunBlocked:
		r.setPhase(st, types.PhaseBlocked)
	default:
		r.setPhase(st, types.PhaseError)
	}

	result := &types.RunResult{
		RunID:       st.id,
		Status:      status,
		Final:       st.doc,
		Iterations:  st.records,
		Checkpoints: st.checkpoints.List(),
		Changes:     st.changes,
		Error:       errMsg,
		Duration:    time.Since(st.started),
	}
	if st.goal.Description != "" {
		goal := st.goal
		result.Goal = &goal
		result.SubGoals = st.subGoals
	}

	if status == types.RunError {
		r.publish(st, events.EventRunError, errMsg)
	} else {
		r.publish(st, events.EventRunCompleted, map[string]any{
			"status":     string(status),
			"changes":    st.changes,
			"tool_stats": r.deps.Executor.Stats(),
		})
	}
	return result
}

// publish forwards an event to the optional bus. Observer failures must
// never influence orchestration, so the bus is already non-blocking and
// nil-safe.
func (r *Runner) publish(st *run, eventType string, data any) {
	r.deps.Bus.Publish(st.id, eventType, data)
}

func (r *Runner) logf(format string, v ...any) {
	if r.deps.Logger != nil {
		r.deps.Logger.Logf(format, v...)
	}
}
