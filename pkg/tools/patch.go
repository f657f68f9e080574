package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/quillworks/autoedit/pkg/types"
	"github.com/quillworks/autoedit/pkg/utils"
)

// PatchTool applies ordered search/replace hunks to the document. Each hunk
// replaces the first occurrence of its search text only. When the literal
// search text is absent, progressively looser matching is tried (NFC
// normalization, then whitespace-flexible matching) before reporting a
// structural failure the oracle can correct.
type PatchTool struct{}

// NewPatchTool creates the patch tool.
func NewPatchTool() *PatchTool {
	return &PatchTool{}
}

func (t *PatchTool) Name() string { return types.ToolPatch }

func (t *PatchTool) Description() string {
	return "Apply targeted search/replace edits to the document"
}

func (t *PatchTool) ParallelSafe() bool { return false }

func (t *PatchTool) Timeout() time.Duration { return 15 * time.Second }

func (t *PatchTool) MaxAttempts() int { return 1 }

func (t *PatchTool) Validate(call *types.ToolCall) error {
	if call.Patch == nil || len(call.Patch.Hunks) == 0 {
		return fmt.Errorf("patch requires at least one search/replace hunk")
	}
	for i, hunk := range call.Patch.Hunks {
		if strings.TrimSpace(hunk.Search) == "" {
			return fmt.Errorf("hunk %d has empty search text", i+1)
		}
	}
	return nil
}

func (t *PatchTool) Execute(ctx context.Context, call *types.ToolCall, doc types.DocumentState) (*types.ToolResult, error) {
	content := doc.Content
	fuzzy := 0

	for i, hunk := range call.Patch.Hunks {
		start, end, loose := findOccurrence(content, hunk.Search)
		if start < 0 {
			// Structural failure: not retried, surfaced to the oracle with
			// a look at the real content so it can correct its search text.
			return &types.ToolResult{
				Success:    false,
				Structural: true,
				Message: fmt.Sprintf(
					"hunk %d/%d: search text not found in document.\nSearched for:\n%s\nDocument begins:\n%s",
					i+1, len(call.Patch.Hunks),
					utils.FirstLines(hunk.Search, 6),
					utils.FirstLines(content, 12),
				),
				Data: map[string]any{"failed_hunk": i + 1},
			}, nil
		}
		if loose {
			fuzzy++
		}
		content = content[:start] + hunk.Replace + content[end:]
	}

	message := fmt.Sprintf("applied %d hunk(s) to %q", len(call.Patch.Hunks), doc.Title)
	data := map[string]any{"hunks": len(call.Patch.Hunks)}
	if fuzzy > 0 {
		message += fmt.Sprintf(" (%d matched loosely)", fuzzy)
		data["fuzzy_matches"] = fuzzy
	}
	return &types.ToolResult{
		Success:    true,
		Message:    message,
		NewContent: &content,
		Data:       data,
	}, nil
}

// findOccurrence locates the first occurrence of needle in content. It
// returns the match bounds and whether loose matching was needed.
func findOccurrence(content, needle string) (int, int, bool) {
	if idx := strings.Index(content, needle); idx >= 0 {
		return idx, idx + len(needle), false
	}

	// The oracle sometimes emits a different Unicode normalization form
	// than the document uses.
	if normalized := norm.NFC.String(needle); normalized != needle {
		if idx := strings.Index(content, normalized); idx >= 0 {
			return idx, idx + len(normalized), true
		}
	}

	// Whitespace-flexible fallback: match the needle's tokens in order with
	// any whitespace between them.
	fields := strings.Fields(needle)
	if len(fields) == 0 {
		return -1, -1, false
	}
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	re, err := regexp.Compile(strings.Join(quoted, `\s+`))
	if err != nil {
		return -1, -1, false
	}
	if loc := re.FindStringIndex(content); loc != nil {
		return loc[0], loc[1], true
	}
	return -1, -1, false
}
