// Package duckduckgo provides the search tool, backed by the DuckDuckGo
// Instant Answer API. Results are condensed into a readable summary of the
// abstract, direct answer, definition and the first related topics.
package duckduckgo
