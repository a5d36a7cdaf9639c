package rpctest

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyTestID is returned, without contacting the server, when an operation is given an empty handle.
var ErrEmptyTestID = errors.New("test id must not be empty")

// ErrTestFailed is returned by WaitForCompletion when the server reports the test as failed.
var ErrTestFailed = errors.New("test failed")

// NetworkError is a failure to get any HTTP response from the server.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s %s: %v", e.Op, e.URL, e.Err)
}

// Cause lets github.com/pkg/errors unwrap to the transport error.
func (e *NetworkError) Cause() error {
	return e.Err
}

// StatusError is a response with a status code other than 200.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// TimeoutError is returned by WaitForCompletion when MaxWait elapses before a terminal status.
type TimeoutError struct {
	TestID     string
	MaxWait    time.Duration
	LastStatus string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %v waiting for test %s to complete, last status %q", e.MaxWait, e.TestID, e.LastStatus)
}

// IsNetworkError returns true if err (or its cause) is a *NetworkError.
func IsNetworkError(err error) bool {
	_, ok := causeOf(err).(*NetworkError)
	return ok
}

// IsStatusError returns true if err (or its cause) is a *StatusError.
func IsStatusError(err error) bool {
	_, ok := causeOf(err).(*StatusError)
	return ok
}

// IsTimeout returns true if err (or its cause) is a *TimeoutError.
func IsTimeout(err error) bool {
	_, ok := causeOf(err).(*TimeoutError)
	return ok
}

// unwraps pkg/errors wrappers but stops at our own types, which also implement Cause.
func causeOf(err error) error {
	type causer interface {
		Cause() error
	}
	for err != nil {
		switch err.(type) {
		case *NetworkError, *StatusError, *TimeoutError:
			return err
		}
		c, ok := err.(causer)
		if !ok {
			return err
		}
		err = c.Cause()
	}
	return err
}
