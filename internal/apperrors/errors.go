// Package apperrors defines the error kinds reported by the rate pivot.
package apperrors

import "errors"

// ErrInvalidArgument indicates a caller-supplied option failed validation.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrMalformedInput indicates the rate document parsed but cannot be transformed.
var ErrMalformedInput = errors.New("malformed input")

// ErrParse indicates the input stream is not well-formed JSON.
var ErrParse = errors.New("parse error")

// ErrLimitExceeded indicates the transformation would exceed a configured resource cap.
var ErrLimitExceeded = errors.New("limit exceeded")

// ExitCode maps an error to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrInvalidArgument):
		return 2
	default:
		return 1
	}
}
