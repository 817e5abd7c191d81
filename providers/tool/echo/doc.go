// Package echo provides the dummy_action tool, which always succeeds and
// echoes a message back. The orchestrator uses it as the catch-all when no
// other tool fits a task.
package echo
