// Package utils holds small helpers shared by the tools, the server and the
// CLI: closing response bodies without losing errors, and rendering values
// as JSON for logs and terminal output.
package utils
