// Package verifier inspects the outcome of an applied edit and produces an
// advisory assessment of it. Verification never blocks an edit that already
// happened; it feeds warnings and a confidence score back into the
// orchestration loop so the model can react to suspicious changes.
package verifier

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/quillworks/autoedit/pkg/types"
	"github.com/quillworks/autoedit/pkg/utils"
)

// maxSummaryChars bounds the diff summary carried in iteration records.
const maxSummaryChars = 4000

// expectedLines maps a goal's complexity class to the number of changed
// lines considered proportionate for it. Changes well beyond the expected
// scale lower confidence but are still accepted.
var expectedLines = map[types.Complexity]int{
	types.ComplexityTrivial:  4,
	types.ComplexitySimple:   20,
	types.ComplexityModerate: 80,
	types.ComplexityComplex:  400,
}

// codeLanguages lists languages whose bracket balance is worth checking.
var codeLanguages = map[string]bool{
	"go":         true,
	"javascript": true,
	"typescript": true,
	"python":     true,
	"java":       true,
	"c":          true,
	"cpp":        true,
	"rust":       true,
	"json":       true,
}

// Verifier compares document states before and after a mutating tool call.
type Verifier struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

func New() *Verifier {
	return &Verifier{dmp: diffmatchpatch.New()}
}

// Verify diffs the two document contents line by line and scores the change
// against the goal it is supposed to serve. The result is advisory: a low
// confidence or a warning never undoes the edit.
func (v *Verifier) Verify(goal types.EditGoal, doc types.DocumentState, before, after string) types.VerificationResult {
	res := types.VerificationResult{Confidence: 1.0, SyntaxValid: true}

	if before == after {
		res.DiffSummary = "no changes"
		res.Warnings = append(res.Warnings, "edit produced no change to the document")
		res.Confidence = 0.5
		return res
	}

	added, removed, summary := v.lineDiff(before, after)
	res.LinesAdded = added
	res.LinesRemoved = removed
	res.DiffSummary = utils.TruncateMiddle(summary, maxSummaryChars)

	res.Confidence = proportionConfidence(goal.Complexity, added+removed)
	if res.Confidence < 1.0 {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("change of %d lines is large for a %s goal", added+removed, goal.Complexity))
	}

	if after == "" && before != "" {
		res.Warnings = append(res.Warnings, "edit emptied the document")
		res.Confidence = min(res.Confidence, 0.3)
	}

	if codeLanguages[strings.ToLower(doc.Language)] {
		if warns := bracketWarnings(after); len(warns) > 0 {
			res.Warnings = append(res.Warnings, warns...)
			res.SyntaxValid = false
			res.Confidence = min(res.Confidence, 0.6)
		}
	}

	return res
}

// lineDiff runs a line-granularity diff and returns counts plus a compact
// textual summary with +/- prefixes on changed lines.
func (v *Verifier) lineDiff(before, after string) (added, removed int, summary string) {
	a, b, lines := v.dmp.DiffLinesToChars(before, after)
	diffs := v.dmp.DiffCharsToLines(v.dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		count := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += count
			writePrefixed(&sb, "+", d.Text)
		case diffmatchpatch.DiffDelete:
			removed += count
			writePrefixed(&sb, "-", d.Text)
		}
	}
	return added, removed, strings.TrimRight(sb.String(), "\n")
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func writePrefixed(sb *strings.Builder, prefix, text string) {
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

// proportionConfidence degrades smoothly as the changed-line count exceeds
// the scale expected for the goal's complexity.
func proportionConfidence(c types.Complexity, changed int) float64 {
	expected, ok := expectedLines[c]
	if !ok {
		expected = expectedLines[types.ComplexityModerate]
	}
	if changed <= expected {
		return 1.0
	}
	ratio := float64(changed) / float64(expected)
	switch {
	case ratio <= 2:
		return 0.8
	case ratio <= 5:
		return 0.6
	default:
		return 0.4
	}
}

// bracketWarnings reports unbalanced braces, parentheses and brackets.
// String and comment contexts are not tracked, so these are heuristics.
func bracketWarnings(content string) []string {
	pairs := []struct {
		open, close rune
		name        string
	}{
		{'{', '}', "braces"},
		{'(', ')', "parentheses"},
		{'[', ']', "brackets"},
	}
	var warns []string
	for _, p := range pairs {
		opens := strings.Count(content, string(p.open))
		closes := strings.Count(content, string(p.close))
		if opens != closes {
			warns = append(warns, fmt.Sprintf("unbalanced %s: %d opening vs %d closing", p.name, opens, closes))
		}
	}
	return warns
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
