// Package intent decides whether a user instruction warrants starting an
// edit run at all, and if so, shapes the instruction into an EditGoal.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quillworks/autoedit/pkg/oracle"
	"github.com/quillworks/autoedit/pkg/types"
	"github.com/quillworks/autoedit/pkg/utils"
)

// Result is the outcome of intent classification.
type Result struct {
	ShouldEdit bool           `json:"should_edit"`
	Confidence float64        `json:"confidence"`
	Goal       types.EditGoal `json:"goal"`
}

// Detector classifies instructions, preferring the oracle and falling back
// to a keyword heuristic when the oracle cannot be reached.
type Detector struct {
	oracle oracle.Oracle
	opts   oracle.Options
	logger *utils.Logger
}

func NewDetector(o oracle.Oracle, opts oracle.Options, logger *utils.Logger) *Detector {
	return &Detector{oracle: o, opts: opts, logger: logger}
}

const classifyPrompt = `You classify whether a user instruction asks for a document to be edited.
Respond with ONLY a JSON object, no prose:
{
  "should_edit": true|false,
  "confidence": 0.0-1.0,
  "goal": "one-sentence restatement of the edit goal",
  "approach": "short hint on how to approach it",
  "complexity": "trivial|simple|moderate|complex",
  "estimated_changes": <integer>
}
An instruction that only asks a question about the document is not an edit.`

type classification struct {
	ShouldEdit       bool    `json:"should_edit"`
	Confidence       float64 `json:"confidence"`
	Goal             string  `json:"goal"`
	Approach         string  `json:"approach"`
	Complexity       string  `json:"complexity"`
	EstimatedChanges int     `json:"estimated_changes"`
}

// Detect asks the oracle to classify the instruction against a short
// document summary. Oracle failure degrades to the heuristic rather than
// failing the run before it starts.
func (d *Detector) Detect(ctx context.Context, instruction string, doc types.DocumentState) Result {
	messages := []oracle.Message{
		{Role: oracle.RoleSystem, Content: classifyPrompt},
		{Role: oracle.RoleUser, Content: fmt.Sprintf(
			"Instruction: %s\n\nDocument %q (%s), first lines:\n%s",
			instruction, doc.Title, doc.Language, utils.FirstLines(doc.Content, 10))},
	}

	text, err := d.oracle.Generate(ctx, messages, d.opts)
	if err != nil {
		if d.logger != nil {
			d.logger.Logf("intent classification via oracle failed, using heuristic: %v", err)
		}
		return Heuristic(instruction)
	}

	var c classification
	if jsonErr := json.Unmarshal([]byte(extractJSON(text)), &c); jsonErr != nil {
		if d.logger != nil {
			d.logger.Logf("intent response not parseable as JSON, using heuristic: %v", jsonErr)
		}
		return Heuristic(instruction)
	}

	goal := types.EditGoal{
		Description:      strings.TrimSpace(c.Goal),
		Approach:         strings.TrimSpace(c.Approach),
		Complexity:       types.ParseComplexity(c.Complexity),
		EstimatedChanges: c.EstimatedChanges,
	}
	if goal.Description == "" {
		goal.Description = instruction
	}
	if goal.EstimatedChanges <= 0 {
		goal.EstimatedChanges = 1
	}
	return Result{ShouldEdit: c.ShouldEdit, Confidence: clamp01(c.Confidence), Goal: goal}
}

var editVerbs = []string{
	"add", "append", "change", "convert", "correct", "delete", "edit",
	"fix", "improve", "insert", "modify", "refactor", "remove", "rename",
	"reorder", "replace", "rewrite", "shorten", "simplify", "translate",
	"update",
}

var questionStarts = []string{
	"what", "why", "how", "when", "where", "who", "does", "is ", "are ",
	"can you explain", "explain",
}

// Heuristic classifies an instruction from its leading verb alone. It is the
// offline fallback and intentionally conservative: confidence never exceeds
// 0.7.
func Heuristic(instruction string) Result {
	lower := strings.ToLower(strings.TrimSpace(instruction))
	res := Result{
		Goal: types.EditGoal{
			Description:      instruction,
			Complexity:       types.ComplexitySimple,
			EstimatedChanges: 1,
		},
	}
	if lower == "" {
		return res
	}
	for _, q := range questionStarts {
		if strings.HasPrefix(lower, q) {
			res.Confidence = 0.6
			return res
		}
	}
	for _, v := range editVerbs {
		if strings.HasPrefix(lower, v+" ") || lower == v {
			res.ShouldEdit = true
			res.Confidence = 0.7
			return res
		}
	}
	// Unrecognized shape: weakly assume an edit was meant, below the
	// default start threshold so the caller decides.
	res.ShouldEdit = true
	res.Confidence = 0.5
	return res
}

// extractJSON pulls the outermost JSON object out of a response that may be
// wrapped in code fences or prose.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
