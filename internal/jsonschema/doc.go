// Package jsonschema describes tool parameters as JSON Schema documents.
//
// Schemas are either derived from Go input types with [Generate], which reads
// `json` and `jsonschema` struct tags, or assembled by hand with [Object] and
// [Property] for tools registered from a bare handler. [Schema.Validate]
// performs the loose checks the dispatch layer needs: required parameters are
// present and primitive values have a compatible kind.
package jsonschema
