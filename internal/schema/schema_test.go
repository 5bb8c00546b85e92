// ABOUTME: Tests for schema reflection and validation
// ABOUTME: Covers types, required fields, bounds, enums and unknown properties

package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string   `json:"name" jsonschema:"minLength=1,maxLength=8"`
	Amount float64  `json:"amount" jsonschema:"exclusiveMinimum=0,maximum=100"`
	Kind   string   `json:"kind,omitempty" jsonschema:"enum=a,enum=b"`
	Note   *string  `json:"note" jsonschema:"oneof_type=string;null"`
	Tags   []string `json:"tags,omitempty"`
}

func compileSample(t *testing.T) *Schema {
	t.Helper()
	s, err := Compile("sample", Reflect(sample{}))
	require.NoError(t, err)
	return s
}

func requireProblems(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "sample", verr.Label)
	return verr.Problems
}

func TestReflect_ClosedSchema(t *testing.T) {
	var doc map[string]any
	require.NoError(t, json.Unmarshal(Reflect(sample{}), &doc))

	assert.Equal(t, "object", doc["type"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.NotContains(t, doc, "$ref")
	assert.NotContains(t, doc, "$defs")
	assert.ElementsMatch(t, []any{"name", "amount", "note"}, doc["required"])
}

func TestValidate_Accepts(t *testing.T) {
	s := compileSample(t)
	assert.NoError(t, s.Validate(json.RawMessage(`{"name":"ok","amount":1.5,"note":null}`)))
	assert.NoError(t, s.Validate(json.RawMessage(`{"name":"ok","amount":100,"kind":"b","note":"x","tags":["t"]}`)))
}

func TestValidate_Rejects(t *testing.T) {
	s := compileSample(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unknown property", `{"name":"ok","amount":1,"note":null,"extra":true}`, "extra"},
		{"missing required", `{"name":"ok","note":null}`, "amount"},
		{"zero amount", `{"name":"ok","amount":0,"note":null}`, "/amount"},
		{"above maximum", `{"name":"ok","amount":101,"note":null}`, "/amount"},
		{"empty name", `{"name":"","amount":1,"note":null}`, "/name"},
		{"long name", `{"name":"ninechars","amount":1,"note":null}`, "/name"},
		{"wrong type", `{"name":1,"amount":1,"note":null}`, "/name"},
		{"enum", `{"name":"ok","amount":1,"kind":"c","note":null}`, "/kind"},
		{"not an object", `[1,2]`, "(root)"},
		{"invalid json", `{"name":`, "invalid JSON"},
		{"empty", ``, "value is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(json.RawMessage(tt.input))
			probs := requireProblems(t, err)
			assert.True(t, strings.Contains(strings.Join(probs, "\n"), tt.want),
				"problems %v should mention %q", probs, tt.want)
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	s := compileSample(t)
	err := s.Validate(json.RawMessage(`{"name":"","amount":-1,"note":null}`))
	probs := requireProblems(t, err)

	joined := strings.Join(probs, "\n")
	assert.Contains(t, joined, "/name")
	assert.Contains(t, joined, "/amount")
	assert.Contains(t, err.Error(), "sample failed validation")
}

func TestAssertSchema(t *testing.T) {
	raw := json.RawMessage(`{"type":"object","properties":{"a":{"type":"integer","minimum":1}},"required":["a"],"additionalProperties":false}`)

	assert.NoError(t, AssertSchema(raw, json.RawMessage(`{"a":2}`), "inline"))

	err := AssertSchema(raw, json.RawMessage(`{"a":0}`), "inline")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "inline", verr.Label)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("bad", json.RawMessage(`{"type":12}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile bad schema")
}
