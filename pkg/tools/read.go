package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillworks/autoedit/pkg/types"
)

// ReadTool returns the current document content to the oracle.
type ReadTool struct{}

// NewReadTool creates the read tool.
func NewReadTool() *ReadTool {
	return &ReadTool{}
}

func (t *ReadTool) Name() string { return types.ToolRead }

func (t *ReadTool) Description() string {
	return "Read the full current content of the document"
}

func (t *ReadTool) ParallelSafe() bool { return true }

func (t *ReadTool) Timeout() time.Duration { return 5 * time.Second }

func (t *ReadTool) MaxAttempts() int { return 1 }

func (t *ReadTool) Validate(call *types.ToolCall) error {
	return nil
}

func (t *ReadTool) Execute(ctx context.Context, call *types.ToolCall, doc types.DocumentState) (*types.ToolResult, error) {
	lines := strings.Count(doc.Content, "\n") + 1
	return &types.ToolResult{
		Success: true,
		Message: fmt.Sprintf("document %q (%d lines):\n%s", doc.Title, lines, doc.Content),
		Data: map[string]any{
			"content": doc.Content,
			"lines":   lines,
		},
	}, nil
}
