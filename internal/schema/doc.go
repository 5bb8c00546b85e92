// Package schema wraps JSON Schema validation for the gateway's typed contracts.
//
// Schemas are reflected from Go structs with invopop/jsonschema and compiled once
// with santhosh-tekuri/jsonschema. Every reflected schema is closed: unknown
// properties are rejected before a handler ever sees the value.
package schema
