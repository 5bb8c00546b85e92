// Package tools holds the fixed tool registry and the dispatcher that runs tools.
//
// Tools are built with New from a typed handler; their input and output schemas
// are reflected from the handler's types. Dispatch looks the tool up, validates
// the input, runs the handler and validates the output, so no handler sees
// unchecked input and no caller sees unchecked output.
package tools
