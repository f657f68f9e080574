// Package events provides the progress/event stream for editing runs.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one observable moment in a run's lifetime. Observers receive
// events best-effort; the orchestration loop never blocks on them.
type Event struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id,omitempty"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Event types emitted by the orchestration loop.
const (
	EventRunStarted         = "run_started"
	EventPhaseChanged       = "phase_changed"
	EventIterationStarted   = "iteration_started"
	EventRationale          = "rationale"
	EventToolCall           = "tool_call"
	EventToolResult         = "tool_result"
	EventVerification       = "verification"
	EventCheckpointCreated  = "checkpoint_created"
	EventCompletionDecision = "completion_decision"
	EventDocumentSnapshot   = "document_snapshot"
	EventRunCompleted       = "run_completed"
	EventRunError           = "run_error"
)

// Bus distributes run events to subscribers. A nil *Bus is valid and drops
// everything, so callers can treat the sink as optional.
type Bus struct {
	subscribers map[string]chan Event
	mutex       sync.RWMutex
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]chan Event),
	}
}

// Subscribe adds a new subscriber to the bus.
func (b *Bus) Subscribe(name string) <-chan Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	ch := make(chan Event, 100)
	b.subscribers[name] = ch
	return ch
}

// Unsubscribe removes a subscriber from the bus.
func (b *Bus) Unsubscribe(name string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if ch, exists := b.subscribers[name]; exists {
		delete(b.subscribers, name)
		close(ch)
	}
}

// Publish broadcasts an event to all subscribers. A full subscriber channel
// is skipped rather than blocking the publisher.
func (b *Bus) Publish(runID, eventType string, data any) {
	if b == nil {
		return
	}
	event := Event{
		ID:        uuid.NewString(),
		RunID:     runID,
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}

	b.mutex.RLock()
	subscribers := make([]chan Event, 0, len(b.subscribers))
	for _, ch := range b.subscribers {
		subscribers = append(subscribers, ch)
	}
	b.mutex.RUnlock()

	for _, ch := range subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber, drop rather than stall the run.
		}
	}
}
