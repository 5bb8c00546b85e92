// ABOUTME: JSON Schema compilation and validation for tool and prompt contracts
// ABOUTME: Reflects schemas from Go types and reports violations as path + constraint

package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationError reports every constraint a value violated.
type ValidationError struct {
	Label    string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s failed validation: %s", e.Label, strings.Join(e.Problems, "; "))
}

// Schema is a compiled JSON Schema bound to a label used in error messages.
type Schema struct {
	label    string
	raw      json.RawMessage
	compiled *jsonschema.Schema
}

// Compile compiles raw once so it can validate many values.
func Compile(label string, raw json.RawMessage) (*Schema, error) {
	compiled, err := jsonschema.CompileString("", string(raw))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", label, err)
	}
	return &Schema{label: label, raw: raw, compiled: compiled}, nil
}

// MustCompile is Compile for schemas known at build time.
func MustCompile(label string, raw json.RawMessage) *Schema {
	s, err := Compile(label, raw)
	if err != nil {
		panic(err)
	}
	return s
}

// Raw returns the schema document.
func (s *Schema) Raw() json.RawMessage { return s.raw }

// Label returns the name used in validation errors.
func (s *Schema) Label() string { return s.label }

// Validate checks value against the schema.
func (s *Schema) Validate(value json.RawMessage) error {
	if len(bytes.TrimSpace(value)) == 0 {
		return &ValidationError{Label: s.label, Problems: []string{"(root): value is required"}}
	}

	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &ValidationError{Label: s.label, Problems: []string{"(root): invalid JSON: " + err.Error()}}
	}
	if dec.More() {
		return &ValidationError{Label: s.label, Problems: []string{"(root): trailing data after JSON value"}}
	}

	err := s.compiled.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return &ValidationError{Label: s.label, Problems: []string{"(root): " + err.Error()}}
	}
	return &ValidationError{Label: s.label, Problems: problems(verr)}
}

// AssertSchema compiles and validates in one step.
func AssertSchema(raw json.RawMessage, value json.RawMessage, label string) error {
	s, err := Compile(label, raw)
	if err != nil {
		return err
	}
	return s.Validate(value)
}

// problems flattens the validator's error tree to its leaves.
func problems(root *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "(root)"
			}
			out = append(out, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(root)
	sort.Strings(out)
	return dedupe(out)
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i > 0 && s == sorted[i-1] {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Reflect derives a closed schema (no additional properties, no $refs) from v.
func Reflect(v any) json.RawMessage {
	r := invopop.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	b, err := json.Marshal(r.Reflect(v))
	if err != nil {
		// Reflected schemas are plain data; marshal cannot fail for them.
		panic(fmt.Sprintf("marshal reflected schema: %v", err))
	}
	return b
}
