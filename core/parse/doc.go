// Package parse turns loosely formed tool arguments into Go values.
//
// Planners, and language models in particular, emit arguments that are not
// always valid JSON: single quotes, trailing commas, Python constants, or
// values wrapped in schema-like {"type": ..., "value": ...} envelopes. The
// helpers here repair the JSON with jsonrepair and unwrap such envelopes
// before giving up with a clear error.
//
// [Arguments] parses a raw argument string into a map, and [Decode] converts
// an argument map into a typed input struct.
package parse
