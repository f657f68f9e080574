package tools

import (
	"fmt"
	"sort"
	"sync"
)

// Registry manages the available tools. It is an explicit instance
// constructed at startup and passed into whatever needs it; there is no
// process-wide registry.
type Registry struct {
	tools map[string]Tool
	mutex sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// NewDefaultRegistry creates a registry populated with the builtin
// document tools.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, tool := range []Tool{NewReadTool(), NewSearchTool(), NewOverwriteTool(), NewPatchTool()} {
		// Builtin names are unique; registration cannot fail here.
		_ = r.Register(tool)
	}
	return r
}

// Register adds a new tool.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("cannot register nil tool")
	}

	name := tool.Name()
	if name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s is already registered", name)
	}

	r.tools[name] = tool
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// Has checks if a tool with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, exists := r.Get(name)
	return exists
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
