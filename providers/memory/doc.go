// Package memory defines the Provider interface for task history. The
// orchestrator appends one [Record] per finished task; the HTTP layer reads
// them back for GET /history. Read methods return errors so that
// database-backed implementations can surface failures instead of silently
// swallowing them.
// The bundled reference implementation lives in the sibling package
// [github.com/leofalp/taskrouter/providers/memory/inmemory].
package memory
