// Package promobs implements observability.Metrics on top of Prometheus
// collectors.
//
// Well-known metric names from the observability package are registered
// eagerly with fixed label sets derived from span attributes. Any other
// name yields an unlabelled collector created on first use.
package promobs
