// Package oracle abstracts the generative model backing the edit loop.
// The orchestrator only sees the Oracle interface, so the loop itself stays
// deterministic and can be driven by a scripted fake in tests.
package oracle

import (
	"context"
	"errors"
)

// ErrUnavailable wraps failures of the oracle call itself (network, auth,
// provider outage). The orchestration loop treats these as infrastructure
// errors rather than recoverable tool failures.
var ErrUnavailable = errors.New("oracle unavailable")

// Message roles follow the usual chat-completion convention.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn in the conversation sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options selects the model and sampling behavior for a single call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Oracle produces a text response for an ordered list of messages. An empty
// response with a nil error is a valid outcome the caller must tolerate.
type Oracle interface {
	Generate(ctx context.Context, messages []Message, opts Options) (string, error)
}
