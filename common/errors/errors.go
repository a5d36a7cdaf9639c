// Package errors associates process exit codes with errors returned by commands.
package errors

type ExitCodeError struct {
	code ExitCode
	error
}

func NewError(err error, exitCode ExitCode) *ExitCodeError {
	if err == nil {
		return nil
	}
	return &ExitCodeError{exitCode, err}
}

func (e *ExitCodeError) GetExitCode() ExitCode {
	if e == nil {
		return 0
	}
	return e.code
}

// Cause returns the wrapped error, for github.com/pkg/errors.
func (e *ExitCodeError) Cause() error {
	return e.error
}

// GetExitCode returns the code carried by err, GenericFailureExitCode for other
// non-nil errors and 0 for nil.
func GetExitCode(err error) ExitCode {
	if err == nil {
		return 0
	}
	if e, ok := err.(*ExitCodeError); ok && e != nil {
		return e.code
	}
	return GenericFailureExitCode
}
