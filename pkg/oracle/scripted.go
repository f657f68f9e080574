package oracle

import (
	"context"
	"fmt"
	"sync"
)

// Scripted replays a fixed sequence of responses and records every request
// it receives. It exists for tests and offline dry runs.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     [][]Message
}

// NewScripted returns an oracle that answers with the given responses in
// order. Once the script is exhausted, further calls fail with
// ErrUnavailable.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// FailAt makes the nth call (0-based) return err instead of its scripted
// response.
func (s *Scripted) FailAt(n int, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.errs) <= n {
		s.errs = append(s.errs, nil)
	}
	s.errs[n] = err
	return s
}

func (s *Scripted) Generate(_ context.Context, messages []Message, _ Options) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.calls)
	copied := make([]Message, len(messages))
	copy(copied, messages)
	s.calls = append(s.calls, copied)

	if n < len(s.errs) && s.errs[n] != nil {
		return "", s.errs[n]
	}
	if n >= len(s.responses) {
		return "", fmt.Errorf("%w: script exhausted after %d responses", ErrUnavailable, len(s.responses))
	}
	return s.responses[n], nil
}

// Calls returns the message lists seen so far, in order.
func (s *Scripted) Calls() [][]Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]Message, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount reports how many times Generate was invoked.
func (s *Scripted) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}
