// Package inmemory provides a concurrency-safe, slice-backed implementation
// of the [memory.Provider] interface for task history kept in process memory.
// It is designed for single-process use where persistence across restarts is
// not required. The main entry point is [New].
package inmemory
