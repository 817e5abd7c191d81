package tool

import (
	"encoding/json"
	"errors"
)

// Status is the outcome of a tool invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the uniform envelope returned by every tool invocation.
//
// A Result with StatusError always has an empty Payload and a non-empty
// Error; use Success and Failure to build one.
type Result struct {
	Status  Status         `json:"status"`
	Payload map[string]any `json:"payload,omitempty"`
	Error   string         `json:"error,omitempty"`

	cause error
}

// Success wraps payload in a successful Result. A nil payload becomes an empty map.
func Success(payload map[string]any) Result {
	if payload == nil {
		payload = map[string]any{}
	}
	return Result{Status: StatusSuccess, Payload: payload}
}

// Failure wraps err in an error Result. A nil err or one with an empty
// message is replaced by ErrToolInternal so Error is never blank.
func Failure(err error) Result {
	if err == nil || err.Error() == "" {
		err = ErrToolInternal
	}
	return Result{Status: StatusError, Error: err.Error(), cause: err}
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Err returns the error carried by a failed Result, or nil on success.
// Results decoded from JSON lose their original cause and return a plain
// error with the same message.
func (r Result) Err() error {
	if r.Status != StatusError {
		return nil
	}
	if r.cause != nil {
		return r.cause
	}
	return errors.New(r.Error)
}

// String renders the Result as compact JSON.
func (r Result) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return string(r.Status)
	}
	return string(data)
}
