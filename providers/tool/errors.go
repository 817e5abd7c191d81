package tool

import "errors"

// Error kinds surfaced in Result.Error. Use errors.Is on Result.Err to
// classify a failure.
var (
	// ErrUnknownTool is returned when an invocation names a tool that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArguments is returned when a required parameter is missing or malformed.
	ErrInvalidArguments = errors.New("invalid arguments")
	// ErrToolInternal covers every other failure inside a tool, including recovered panics.
	ErrToolInternal = errors.New("tool internal error")
	// ErrAlreadyRegistered is returned by Register for a name already in use.
	ErrAlreadyRegistered = errors.New("tool already registered")
)
