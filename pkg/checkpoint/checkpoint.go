// Package checkpoint keeps a bounded history of document states captured
// after each successful mutation, so a run can be rolled back to any
// retained point without growing memory without bound.
package checkpoint

import (
	"fmt"
	"sync"
	"time"

	"github.com/quillworks/autoedit/pkg/types"
)

// DefaultCapacity is the number of checkpoints retained when no explicit
// capacity is configured.
const DefaultCapacity = 8

// Manager stores checkpoints in insertion order and evicts the oldest entry
// once capacity is reached. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	capacity int
	entries  []types.Checkpoint
	now      func() time.Time
}

func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{capacity: capacity, now: time.Now}
}

// Create snapshots the document state after a successful edit. When the
// ring is full the oldest checkpoint is dropped to make room.
func (m *Manager) Create(state types.DocumentState, iteration int, description string) types.Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := types.Checkpoint{
		State:       state,
		Iteration:   iteration,
		Description: description,
		CreatedAt:   m.now(),
	}
	if len(m.entries) >= m.capacity {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, cp)
	return cp
}

// List returns the retained checkpoints, oldest first.
func (m *Manager) List() []types.Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Checkpoint, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len reports the number of retained checkpoints.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Latest returns the most recent checkpoint, or false when none exist.
func (m *Manager) Latest() (types.Checkpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return types.Checkpoint{}, false
	}
	return m.entries[len(m.entries)-1], true
}

// RollbackTo returns the document state captured at the given position in
// List order and discards every checkpoint taken after it. The rolled-back
// checkpoint itself is retained so repeated rollbacks to the same point work.
func (m *Manager) RollbackTo(index int) (types.DocumentState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if index < 0 || index >= len(m.entries) {
		return types.DocumentState{}, fmt.Errorf("checkpoint index %d out of range (have %d)", index, len(m.entries))
	}
	cp := m.entries[index]
	m.entries = m.entries[:index+1]
	return cp.State, nil
}
