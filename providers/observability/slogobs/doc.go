// Package slogobs provides an observability.Provider backed by log/slog.
//
// Spans are logged at start and end with their accumulated attributes,
// counters keep a running total in memory, and log calls map directly onto
// slog levels. The main entry point is [New]; the handler can be tuned with
// [WithFormat], [WithLevel], [WithOutput] and [WithLogger].
package slogobs
