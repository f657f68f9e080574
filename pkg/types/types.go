// Package types holds the shared data model for an autonomous editing run.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Complexity classifies how involved an edit goal is expected to be.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ParseComplexity maps free-form text onto a known complexity class,
// defaulting to simple.
func ParseComplexity(s string) Complexity {
	switch Complexity(strings.ToLower(strings.TrimSpace(s))) {
	case ComplexityTrivial:
		return ComplexityTrivial
	case ComplexityModerate:
		return ComplexityModerate
	case ComplexityComplex:
		return ComplexityComplex
	default:
		return ComplexitySimple
	}
}

// EditGoal is the target of one orchestration run. It is created once at
// loop start from intent detection and is immutable for the run's duration.
type EditGoal struct {
	Description      string     `json:"description"`
	Approach         string     `json:"approach,omitempty"`
	Complexity       Complexity `json:"complexity"`
	EstimatedChanges int        `json:"estimated_changes,omitempty"`
}

// DocumentState is the full text of the document being edited plus its
// logical identity. Exactly one current state exists per run; it is replaced,
// never mutated in place, after every successful tool execution.
type DocumentState struct {
	Title    string `json:"title"`
	Language string `json:"language,omitempty"`
	Content  string `json:"content"`
}

// Tool names form a small closed vocabulary.
const (
	ToolRead      = "read"
	ToolOverwrite = "overwrite"
	ToolPatch     = "patch"
	ToolSearch    = "search"
)

// ToolNames lists every tool in the fixed set.
func ToolNames() []string {
	return []string{ToolRead, ToolOverwrite, ToolPatch, ToolSearch}
}

// PatchHunk is one ordered search/replace pair inside a patch tool call.
type PatchHunk struct {
	Search  string `json:"search"`
	Replace string `json:"replace"`
}

// OverwriteParams carries the full replacement text for the overwrite tool.
type OverwriteParams struct {
	Content string `json:"content"`
}

// PatchParams carries the ordered hunks for the patch tool.
type PatchParams struct {
	Hunks []PatchHunk `json:"hunks"`
}

// SearchParams carries the query for the search tool.
type SearchParams struct {
	Query string `json:"query"`
}

// ToolCall is a tagged variant over the fixed tool set. Exactly one of the
// parameter pointers matching Name is populated by the parser. Confidence
// and Corrections record how much formatting tolerance was needed to
// recover the call from raw oracle output.
type ToolCall struct {
	Name        string           `json:"name"`
	Overwrite   *OverwriteParams `json:"overwrite,omitempty"`
	Patch       *PatchParams     `json:"patch,omitempty"`
	Search      *SearchParams    `json:"search,omitempty"`
	Confidence  float64          `json:"confidence"`
	Corrections []string         `json:"corrections,omitempty"`
}

// Describe returns a short human-readable summary of the call for logs.
func (c *ToolCall) Describe() string {
	switch c.Name {
	case ToolPatch:
		if c.Patch != nil {
			return fmt.Sprintf("patch (%d hunks)", len(c.Patch.Hunks))
		}
	case ToolSearch:
		if c.Search != nil {
			return fmt.Sprintf("search %q", c.Search.Query)
		}
	case ToolOverwrite:
		if c.Overwrite != nil {
			return fmt.Sprintf("overwrite (%d bytes)", len(c.Overwrite.Content))
		}
	}
	return c.Name
}

// ToolResult is the outcome of one ToolCall. NewContent is set only when the
// tool produced a new authoritative document text.
type ToolResult struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	NewContent *string        `json:"new_content,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	// Structural marks a failure the executor must not retry (for example
	// patch search text not found); it is surfaced to the oracle instead.
	Structural bool          `json:"structural,omitempty"`
	Attempts   int           `json:"attempts,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// VerificationResult is the verifier's advisory assessment of one edit.
type VerificationResult struct {
	DiffSummary  string   `json:"diff_summary"`
	LinesAdded   int      `json:"lines_added"`
	LinesRemoved int      `json:"lines_removed"`
	Confidence   float64  `json:"confidence"`
	Warnings     []string `json:"warnings,omitempty"`
	SyntaxValid  bool     `json:"syntax_valid"`
}

// Checkpoint is an immutable snapshot taken after a successful mutation.
type Checkpoint struct {
	State       DocumentState `json:"state"`
	Iteration   int           `json:"iteration"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"created_at"`
}

// GoalStatus tags each iteration's view of goal progress.
type GoalStatus string

const (
	GoalInProgress GoalStatus = "in_progress"
	GoalAchieved   GoalStatus = "achieved"
	GoalBlocked    GoalStatus = "blocked"
)

// CompletionDecision is the detector's verdict for one oracle turn. Signals
// retains the individual weak-signal values for debuggability.
type CompletionDecision struct {
	Complete   bool               `json:"complete"`
	Confidence float64            `json:"confidence"`
	Reason     string             `json:"reason"`
	Signals    map[string]float64 `json:"signals,omitempty"`
}

// IterationRecord is one slot in the run's append-only audit trail.
type IterationRecord struct {
	Step         int                 `json:"step"`
	Rationale    string              `json:"rationale,omitempty"`
	ToolCall     *ToolCall           `json:"tool_call,omitempty"`
	Result       *ToolResult         `json:"result,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
	Completion   *CompletionDecision `json:"completion,omitempty"`
	Duration     time.Duration       `json:"duration"`
	Status       GoalStatus          `json:"status"`
}

// Phase names the orchestration loop's state-machine states.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseDetecting Phase = "detecting"
	PhasePlanning  Phase = "planning"
	PhaseExecuting Phase = "executing"
	PhaseComplete  Phase = "complete"
	PhaseBlocked   Phase = "blocked"
	PhaseError     Phase = "error"
)

// RunStatus is the terminal outcome of a run.
type RunStatus string

const (
	RunSuccess RunStatus = "success_with_changes"
	RunNoEdit  RunStatus = "no_edit_intended"
	RunBlocked RunStatus = "blocked"
	RunError   RunStatus = "error"
)

// RunResult is everything a caller gets back from one orchestration run:
// terminal status, the last-known-good document, and the full audit trail.
type RunResult struct {
	RunID       string            `json:"run_id"`
	Status      RunStatus         `json:"status"`
	Goal        *EditGoal         `json:"goal,omitempty"`
	SubGoals    []string          `json:"sub_goals,omitempty"`
	Final       DocumentState     `json:"final"`
	Iterations  []IterationRecord `json:"iterations"`
	Checkpoints []Checkpoint      `json:"checkpoints,omitempty"`
	Changes     int               `json:"changes"`
	Error       string            `json:"error,omitempty"`
	Duration    time.Duration     `json:"duration"`
}
