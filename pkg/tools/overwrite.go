package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/quillworks/autoedit/pkg/types"
)

// OverwriteTool replaces the entire document text. It is the heaviest
// mutation and is never parallelized.
type OverwriteTool struct{}

// NewOverwriteTool creates the overwrite tool.
func NewOverwriteTool() *OverwriteTool {
	return &OverwriteTool{}
}

func (t *OverwriteTool) Name() string { return types.ToolOverwrite }

func (t *OverwriteTool) Description() string {
	return "Replace the entire document with new content"
}

func (t *OverwriteTool) ParallelSafe() bool { return false }

func (t *OverwriteTool) Timeout() time.Duration { return 30 * time.Second }

func (t *OverwriteTool) MaxAttempts() int { return 2 }

func (t *OverwriteTool) Validate(call *types.ToolCall) error {
	if call.Overwrite == nil {
		return fmt.Errorf("overwrite requires content")
	}
	if strings.TrimSpace(call.Overwrite.Content) == "" {
		return fmt.Errorf("overwrite content must not be empty")
	}
	return nil
}

func (t *OverwriteTool) Execute(ctx context.Context, call *types.ToolCall, doc types.DocumentState) (*types.ToolResult, error) {
	content := call.Overwrite.Content
	return &types.ToolResult{
		Success:    true,
		Message:    fmt.Sprintf("replaced entire content of %q (%d bytes)", doc.Title, len(content)),
		NewContent: &content,
	}, nil
}
