package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of fetch failures.
type ErrorClass string

const (
	// ErrorClassTimeout represents an attempt that exceeded its deadline.
	ErrorClassTimeout ErrorClass = "timeout"

	// ErrorClassServer represents a transient server condition (5xx, 429, 408).
	ErrorClassServer ErrorClass = "server"

	// ErrorClassClient represents non-retryable 4xx errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassAborted represents a cancellation by the caller.
	ErrorClassAborted ErrorClass = "aborted"

	// ErrorClassUnknown represents anything not otherwise classified.
	ErrorClassUnknown ErrorClass = "unknown"
)

// User-facing messages for failures that carry no server message.
const (
	TimeoutMessage = "Request timed out. The server took too long to respond, please try again"
	AbortedMessage = "Aborted request"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is matched by errors returned after all retries are used up.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrTimeout is matched by timeout-class errors.
	ErrTimeout = errors.New("attempt timed out")

	// ErrAborted is matched by aborted-class errors.
	ErrAborted = errors.New("request aborted")
)

// FetchError is a classified fetch failure.
type FetchError struct {
	Class      ErrorClass
	StatusCode int
	Message    string

	// Exhausted is set when the error is the last of a retried series.
	Exhausted bool

	// Attempts is the number of calls made, including the first one.
	Attempts int

	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	prefix := fmt.Sprintf("%s error", e.Class)
	if e.StatusCode > 0 {
		prefix = fmt.Sprintf("%s error (status %d)", e.Class, e.StatusCode)
	}
	if e.Exhausted {
		prefix = fmt.Sprintf("%s after %d attempts", prefix, e.Attempts)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the package sentinels by class.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrRetryExhausted:
		return e.Exhausted
	case ErrTimeout:
		return e.Class == ErrorClassTimeout
	case ErrAborted:
		return e.Class == ErrorClassAborted
	default:
		return false
	}
}

// Classify normalises err into a *FetchError. Errors that are already
// classified are returned unchanged.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &FetchError{Class: ErrorClassTimeout, Message: TimeoutMessage, Err: err}
	case errors.Is(err, context.Canceled):
		return &FetchError{Class: ErrorClassAborted, Message: AbortedMessage, Err: err}
	default:
		return &FetchError{Class: ErrorClassUnknown, Message: err.Error(), Err: err}
	}
}

// ClassifyStatus categorizes an HTTP error status.
func ClassifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return ErrorClassServer
	case status >= 500:
		return ErrorClassServer
	case status >= 400:
		return ErrorClassClient
	default:
		return ErrorClassUnknown
	}
}

// IsRetryable is the default retry predicate: only transient server
// conditions are retried.
func IsRetryable(err *FetchError) bool {
	if err == nil {
		return false
	}
	return err.Class == ErrorClassServer
}
