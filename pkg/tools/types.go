// Package tools owns the fixed set of document-mutation tools and their
// execution discipline: parameter validation, per-tool timeouts, retry with
// backoff, and circuit breaking.
package tools

import (
	"context"
	"time"

	"github.com/quillworks/autoedit/pkg/types"
)

// Tool is one document mutation or inspection operation. Tools are pure with
// respect to the document: they receive a read-only copy of the current
// state and report any new text through ToolResult.NewContent.
type Tool interface {
	// Name returns the unique name of the tool.
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// ParallelSafe reports whether calls to this tool may run concurrently
	// with other parallel-safe calls in an ExecuteMany batch. Mutating tools
	// are never parallel-safe.
	ParallelSafe() bool

	// Timeout is the per-call execution deadline.
	Timeout() time.Duration

	// MaxAttempts is the retry ceiling, including the first attempt.
	MaxAttempts() int

	// Validate checks the call's parameters against the tool's schema.
	// A validation error short-circuits execution with no retry.
	Validate(call *types.ToolCall) error

	// Execute runs the tool against the given document state.
	Execute(ctx context.Context, call *types.ToolCall, doc types.DocumentState) (*types.ToolResult, error)
}

// ToolStats accumulates per-tool execution statistics for a run.
type ToolStats struct {
	Calls         int           `json:"calls"`
	Failures      int           `json:"failures"`
	TotalDuration time.Duration `json:"total_duration"`
}
