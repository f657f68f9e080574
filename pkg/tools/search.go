package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillworks/autoedit/pkg/types"
)

const (
	searchMaxMatches   = 20
	searchContextLines = 2
)

// SearchTool finds occurrences of a query in the document and returns
// line-numbered matches with surrounding context, so corrective prompts can
// show the oracle what the document actually contains.
type SearchTool struct{}

// NewSearchTool creates the search tool.
func NewSearchTool() *SearchTool {
	return &SearchTool{}
}

func (t *SearchTool) Name() string { return types.ToolSearch }

func (t *SearchTool) Description() string {
	return "Search the document for a query and return matching lines with context"
}

func (t *SearchTool) ParallelSafe() bool { return true }

func (t *SearchTool) Timeout() time.Duration { return 5 * time.Second }

func (t *SearchTool) MaxAttempts() int { return 1 }

func (t *SearchTool) Validate(call *types.ToolCall) error {
	if call.Search == nil || strings.TrimSpace(call.Search.Query) == "" {
		return fmt.Errorf("search requires a non-empty query")
	}
	return nil
}

func (t *SearchTool) Execute(ctx context.Context, call *types.ToolCall, doc types.DocumentState) (*types.ToolResult, error) {
	query := strings.ToLower(call.Search.Query)
	lines := strings.Split(doc.Content, "\n")

	var matches []int
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), query) {
			matches = append(matches, i)
			if len(matches) >= searchMaxMatches {
				break
			}
		}
	}

	if len(matches) == 0 {
		return &types.ToolResult{
			Success: true,
			Message: fmt.Sprintf("no matches for %q in document %q", call.Search.Query, doc.Title),
			Data:    map[string]any{"matches": 0},
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d match(es) for %q:\n", len(matches), call.Search.Query)
	for _, m := range matches {
		start := m - searchContextLines
		if start < 0 {
			start = 0
		}
		end := m + searchContextLines
		if end > len(lines)-1 {
			end = len(lines) - 1
		}
		for i := start; i <= end; i++ {
			marker := " "
			if i == m {
				marker = ">"
			}
			fmt.Fprintf(&b, "%s %4d | %s\n", marker, i+1, lines[i])
		}
		b.WriteString("\n")
	}

	return &types.ToolResult{
		Success: true,
		Message: strings.TrimRight(b.String(), "\n"),
		Data:    map[string]any{"matches": len(matches)},
	}, nil
}
