// ABOUTME: Prompt templates rendered from validated, typed parameters
// ABOUTME: Registry is fixed at startup like the tool registry

package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/2389/toolgate/internal/schema"
)

// ErrPromptNotFound is returned for names missing from the registry.
var ErrPromptNotFound = errors.New("prompt not found")

// NotFoundError names the prompt that was requested.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return "Prompt not found: " + e.Name }

// Is makes errors.Is(err, ErrPromptNotFound) match.
func (e *NotFoundError) Is(target error) bool { return target == ErrPromptNotFound }

// Message is one rendered chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Definition describes a prompt for listings.
type Definition struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	ParamsSchema json.RawMessage `json:"paramsSchema"`
}

// Prompt is a named template.
type Prompt struct {
	def    Definition
	params *schema.Schema
	render func(ctx context.Context, raw json.RawMessage) ([]Message, error)
}

// New builds a prompt whose parameter schema is reflected from P.
func New[P any](name, description string, render func(ctx context.Context, params P) ([]Message, error)) *Prompt {
	var zero P
	raw := schema.Reflect(zero)
	return &Prompt{
		def:    Definition{Name: name, Description: description, ParamsSchema: raw},
		params: schema.MustCompile(name+" params", raw),
		render: func(ctx context.Context, data json.RawMessage) ([]Message, error) {
			var p P
			if err := json.Unmarshal(data, &p); err != nil {
				return nil, fmt.Errorf("decode %s params: %w", name, err)
			}
			return render(ctx, p)
		},
	}
}

// Registry holds prompts by name.
type Registry struct {
	prompts map[string]*Prompt
}

// NewRegistry builds a registry. Duplicate names are an error.
func NewRegistry(prompts ...*Prompt) (*Registry, error) {
	r := &Registry{prompts: make(map[string]*Prompt, len(prompts))}
	for _, p := range prompts {
		if _, exists := r.prompts[p.def.Name]; exists {
			return nil, fmt.Errorf("duplicate prompt name %q", p.def.Name)
		}
		r.prompts[p.def.Name] = p
	}
	return r, nil
}

// Render validates params and renders the named prompt. Empty params are {}.
func (r *Registry) Render(ctx context.Context, name string, params json.RawMessage) ([]Message, error) {
	p, ok := r.prompts[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	if err := p.params.Validate(params); err != nil {
		return nil, err
	}
	return p.render(ctx, params)
}

// List returns every definition sorted by name.
func (r *Registry) List() []Definition {
	defs := make([]Definition, 0, len(r.prompts))
	for _, p := range r.prompts {
		defs = append(defs, p.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
