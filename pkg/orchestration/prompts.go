package orchestration

import (
	"fmt"
	"strings"

	"github.com/quillworks/autoedit/pkg/completion"
	"github.com/quillworks/autoedit/pkg/oracle"
	"github.com/quillworks/autoedit/pkg/parser"
	"github.com/quillworks/autoedit/pkg/types"
	"github.com/quillworks/autoedit/pkg/utils"
)

// systemPrompt teaches the model the tool-tag wire format. The marker
// strings must match what the parser accepts and what parser.Format emits.
const systemPrompt = `You are an autonomous document editor. You work in small steps: inspect the document, apply one focused change, check the result.

Available tools. Emit exactly one tool invocation per reply, using these tagged blocks:

[` + parser.TagRead + `]
Returns the full current document.

[` + parser.TagSearch + `: <query>]
Returns the lines matching <query> with surrounding context.

[` + parser.TagOverwrite + `]
<entire new document content>
[/` + parser.TagOverwrite + `]
Replaces the whole document. Use only for rewrites too large to patch.

[` + parser.TagPatch + `]
<<<<<<< SEARCH
<exact text currently in the document>
=======
<replacement text>
>>>>>>> REPLACE
[/` + parser.TagPatch + `]
Applies targeted replacements. The SEARCH text must appear verbatim in the document; only its first occurrence is replaced. Repeat the marker block for multiple hunks.

Rules:
- Briefly explain your reasoning before the tool block.
- Prefer ` + parser.TagPatch + ` for focused edits.
- When the goal is fully satisfied, reply with the single line ` + completion.ExplicitMarker + ` and no tool invocation.`

// buildOpeningPrompt forms the first user turn: goal, plan, and the
// document itself, windowed when oversized.
func buildOpeningPrompt(goal types.EditGoal, subGoals []string, doc types.DocumentState, maxChars int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: %s\n", goal.Description)
	if goal.Approach != "" {
		fmt.Fprintf(&sb, "Suggested approach: %s\n", goal.Approach)
	}
	fmt.Fprintf(&sb, "Expected scale: %s, about %d change(s)\n", goal.Complexity, goal.EstimatedChanges)
	if len(subGoals) > 1 {
		sb.WriteString("Plan:\n")
		for i, sg := range subGoals {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, sg)
		}
	}
	fmt.Fprintf(&sb, "\nDocument %q (%s):\n%s\n",
		doc.Title, doc.Language, utils.TruncateMiddle(doc.Content, maxChars))
	return sb.String()
}

// resultMessage renders a tool outcome as the next user turn.
func resultMessage(call *types.ToolCall, result *types.ToolResult, verification *types.VerificationResult) string {
	var sb strings.Builder
	if result.Success {
		fmt.Fprintf(&sb, "Tool %s succeeded: %s\n", call.Name, result.Message)
	} else {
		fmt.Fprintf(&sb, "Tool %s failed: %s\n", call.Name, result.Message)
	}
	if verification != nil {
		fmt.Fprintf(&sb, "Verification: +%d/-%d lines, confidence %.2f\n",
			verification.LinesAdded, verification.LinesRemoved, verification.Confidence)
		for _, w := range verification.Warnings {
			fmt.Fprintf(&sb, "Warning: %s\n", w)
		}
	}
	sb.WriteString("Continue with the next step, or declare " + completion.ExplicitMarker + " if the goal is fully satisfied.")
	return sb.String()
}

// structuralFailureMessage tells the model exactly why its edit could not be
// applied, including the real current content so it can re-anchor.
func structuralFailureMessage(result *types.ToolResult, doc types.DocumentState, maxChars int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Your edit could not be applied: %s\n", result.Message)
	fmt.Fprintf(&sb, "\nCurrent document content:\n%s\n", utils.TruncateMiddle(doc.Content, maxChars))
	sb.WriteString("Adjust the search text to match the document exactly and try again.")
	return sb.String()
}

// prematureClaimMessage is injected when a completion claim is rejected
// because no work has been done yet.
const prematureClaimMessage = "You declared the goal achieved, but no change has been applied to the document yet. Make the edit with a tool invocation before declaring completion."

// noToolCallMessage nudges the model back on track when its reply contained
// neither a tool invocation nor a completion claim.
const noToolCallMessage = "Your reply contained no tool invocation. Emit exactly one tool block in the documented format, or the single line " + completion.ExplicitMarker + " if the goal is fully satisfied."

// trimTranscript bounds prompt growth: the system message and the opening
// user turn are always kept, plus the most recent keepTurns messages.
func trimTranscript(messages []oracle.Message, keepTurns int) []oracle.Message {
	const pinned = 2
	if keepTurns <= 0 || len(messages) <= pinned+keepTurns {
		return messages
	}
	trimmed := make([]oracle.Message, 0, pinned+keepTurns)
	trimmed = append(trimmed, messages[:pinned]...)
	trimmed = append(trimmed, messages[len(messages)-keepTurns:]...)
	return trimmed
}

// planSubGoals splits a goal description into display-level sub-goals. The
// split shapes prompts and progress reporting only; it never gates
// execution.
func planSubGoals(goal types.EditGoal) []string {
	text := strings.TrimSpace(goal.Description)
	if text == "" {
		return nil
	}
	seps := []string{"; ", ", and ", " and then ", ". "}
	parts := []string{text}
	for _, sep := range seps {
		var next []string
		for _, p := range parts {
			next = append(next, strings.Split(p, sep)...)
		}
		parts = next
	}
	var subGoals []string
	for _, p := range parts {
		p = strings.TrimSpace(strings.TrimSuffix(p, "."))
		if p != "" {
			subGoals = append(subGoals, p)
		}
	}
	if len(subGoals) == 0 {
		return []string{text}
	}
	return subGoals
}
