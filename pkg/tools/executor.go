package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/quillworks/autoedit/pkg/types"
	"github.com/quillworks/autoedit/pkg/utils"
)

// ErrCircuitOpen marks a call short-circuited by the breaker; no tool code
// ran and the failure does not count toward the breaker.
var ErrCircuitOpen = errors.New("tool temporarily disabled by circuit breaker")

// Executor dispatches tool calls with validation, per-tool timeouts, retry
// with exponential backoff, and circuit breaking. All failures are returned
// as ToolResult values; nothing escapes the orchestration loop as a panic.
type Executor struct {
	registry   *Registry
	breaker    *CircuitBreaker
	logger     *utils.Logger
	baseDelay  time.Duration
	multiplier float64

	statsMu sync.Mutex
	stats   map[string]*ToolStats

	// sleep is indirected so retry tests run instantly.
	sleep func(ctx context.Context, d time.Duration)
}

// NewExecutor creates an executor over the given registry and breaker.
func NewExecutor(registry *Registry, breaker *CircuitBreaker, logger *utils.Logger, baseDelay time.Duration, multiplier float64) *Executor {
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if multiplier < 1 {
		multiplier = 2.0
	}
	return &Executor{
		registry:   registry,
		breaker:    breaker,
		logger:     logger,
		baseDelay:  baseDelay,
		multiplier: multiplier,
		stats:      make(map[string]*ToolStats),
		sleep:      sleepCtx,
	}
}

// Execute runs one tool call against the given document state.
func (e *Executor) Execute(ctx context.Context, call *types.ToolCall, doc types.DocumentState) *types.ToolResult {
	start := time.Now()

	tool, exists := e.registry.Get(call.Name)
	if !exists {
		return &types.ToolResult{
			Success:    false,
			Structural: true,
			Message:    fmt.Sprintf("tool %q is not registered", call.Name),
			Duration:   time.Since(start),
		}
	}

	if e.breaker != nil && !e.breaker.Allow(call.Name) {
		// No call is attempted and this is not a fresh failure.
		return &types.ToolResult{
			Success:  false,
			Message:  fmt.Sprintf("tool %s is temporarily disabled after repeated failures; try a different approach", call.Name),
			Data:     map[string]any{"circuit_open": true},
			Duration: time.Since(start),
		}
	}

	if err := tool.Validate(call); err != nil {
		return &types.ToolResult{
			Success:    false,
			Structural: true,
			Message:    fmt.Sprintf("invalid parameters for %s: %v", call.Name, err),
			Duration:   time.Since(start),
		}
	}

	maxAttempts := tool.MaxAttempts()
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := e.attempt(ctx, tool, call, doc)

		if err == nil && result != nil && result.Success {
			if e.breaker != nil {
				e.breaker.RecordSuccess(call.Name)
			}
			result.Attempts = attempt
			result.Duration = time.Since(start)
			e.record(call.Name, result.Duration, false)
			return result
		}

		// Structural failures (search text not found, malformed input) are
		// surfaced to the oracle as corrective guidance, never retried and
		// never counted against the circuit.
		if err == nil && result != nil && result.Structural {
			result.Attempts = attempt
			result.Duration = time.Since(start)
			e.record(call.Name, result.Duration, true)
			return result
		}

		switch {
		case err != nil:
			lastErr = err.Error()
		case result != nil:
			lastErr = result.Message
		default:
			lastErr = "tool returned no result"
		}
		if e.logger != nil {
			e.logger.Logf("tool %s attempt %d/%d failed: %s", call.Name, attempt, maxAttempts, lastErr)
		}

		// A cancelled run must not poison the shared breaker.
		if ctx.Err() != nil {
			return &types.ToolResult{
				Success:  false,
				Message:  fmt.Sprintf("tool %s aborted: %v", call.Name, ctx.Err()),
				Attempts: attempt,
				Duration: time.Since(start),
			}
		}

		if attempt < maxAttempts {
			delay := time.Duration(float64(e.baseDelay) * math.Pow(e.multiplier, float64(attempt-1)))
			e.sleep(ctx, delay)
		}
	}

	if e.breaker != nil {
		e.breaker.RecordFailure(call.Name)
	}
	e.record(call.Name, time.Since(start), true)
	return &types.ToolResult{
		Success:  false,
		Message:  fmt.Sprintf("tool %s failed after %d attempts: %s", call.Name, maxAttempts, lastErr),
		Data:     map[string]any{"last_error": lastErr},
		Attempts: maxAttempts,
		Duration: time.Since(start),
	}
}

// attempt runs a single bounded execution of the tool.
func (e *Executor) attempt(ctx context.Context, tool Tool, call *types.ToolCall, doc types.DocumentState) (*types.ToolResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, tool.Timeout())
	defer cancel()

	type outcome struct {
		result *types.ToolResult
		err    error
	}
	resultChan := make(chan outcome, 1)
	go func() {
		result, err := tool.Execute(attemptCtx, call, doc)
		resultChan <- outcome{result, err}
	}()

	select {
	case out := <-resultChan:
		return out.result, out.err
	case <-attemptCtx.Done():
		// A timed-out call counts as a failure even if the underlying
		// operation eventually completes.
		return nil, fmt.Errorf("tool %s timed out after %v", tool.Name(), tool.Timeout())
	}
}

// ExecuteMany runs a batch of tool calls. Parallel-safe calls run
// concurrently; sequential calls run in declared order, and a failing
// sequential call halts the rest of the sequential portion while
// already-dispatched parallel calls still complete. Results are returned in
// the declared order.
func (e *Executor) ExecuteMany(ctx context.Context, calls []*types.ToolCall, doc types.DocumentState) []*types.ToolResult {
	results := make([]*types.ToolResult, len(calls))

	var parallel []int
	var sequential []int
	for i, call := range calls {
		if tool, ok := e.registry.Get(call.Name); ok && tool.ParallelSafe() {
			parallel = append(parallel, i)
		} else {
			sequential = append(sequential, i)
		}
	}

	var wg sync.WaitGroup
	for _, i := range parallel {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Execute(ctx, calls[i], doc)
		}(i)
	}

	halted := false
	for _, i := range sequential {
		if halted {
			results[i] = &types.ToolResult{
				Success: false,
				Message: fmt.Sprintf("tool %s skipped after earlier failure in sequential batch", calls[i].Name),
			}
			continue
		}
		result := e.Execute(ctx, calls[i], doc)
		results[i] = result
		if result.Success && result.NewContent != nil {
			// Later sequential calls observe the updated text.
			doc.Content = *result.NewContent
		}
		if !result.Success {
			halted = true
		}
	}

	wg.Wait()
	return results
}

// Stats returns a copy of the per-tool execution statistics.
func (e *Executor) Stats() map[string]ToolStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	out := make(map[string]ToolStats, len(e.stats))
	for name, s := range e.stats {
		out[name] = *s
	}
	return out
}

func (e *Executor) record(tool string, d time.Duration, failed bool) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	s, exists := e.stats[tool]
	if !exists {
		s = &ToolStats{}
		e.stats[tool] = s
	}
	s.Calls++
	s.TotalDuration += d
	if failed {
		s.Failures++
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
