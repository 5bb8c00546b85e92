// ABOUTME: Fixed registry of tools resolved at process start
// ABOUTME: No registration or removal after construction

package tools

import (
	"fmt"
	"sort"
)

// Registry maps tool names to tools.
type Registry struct {
	tools map[string]*Tool
	names []string
}

// NewRegistry builds a registry from tools. Duplicate names are an error.
func NewRegistry(tools ...*Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]*Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("nil tool")
		}
		if _, exists := r.tools[t.Name()]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", t.Name())
		}
		r.tools[t.Name()] = t
		r.names = append(r.names, t.Name())
	}
	sort.Strings(r.names)
	return r, nil
}

// Get returns the named tool.
func (r *Registry) Get(name string) (*Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns every definition sorted by name.
func (r *Registry) List() []Definition {
	defs := make([]Definition, 0, len(r.names))
	for _, name := range r.names {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }
