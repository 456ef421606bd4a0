package errors

import (
	"errors"
	"fmt"
)

// RunnerError is the base interface for all runner errors.
type RunnerError interface {
	error
	IsRunnerError() bool
}

// Compile-time verification that all error types implement RunnerError.
var (
	_ RunnerError = (*BinaryNotFoundError)(nil)
	_ RunnerError = (*ProcessStartError)(nil)
	_ RunnerError = (*InvocationError)(nil)
	_ RunnerError = (*TransportError)(nil)
	_ RunnerError = (*EventEncodeError)(nil)
	_ RunnerError = (*ResponseDecodeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrInvalidRange indicates a port range specifier could not be parsed.
	ErrInvalidRange = errors.New("invalid port range")

	// ErrReadyTimeout indicates the emulator produced no output within the
	// configured readiness timeout.
	ErrReadyTimeout = errors.New("emulator readiness timeout")

	// ErrEmulatorExited indicates the emulator exited before it became ready.
	ErrEmulatorExited = errors.New("emulator exited before becoming ready")
)

// BinaryNotFoundError indicates the aws-lambda-rie binary was not found.
type BinaryNotFoundError struct {
	SearchedPaths []string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("aws-lambda-rie not found in: %v", e.SearchedPaths)
}

// IsRunnerError implements RunnerError.
func (e *BinaryNotFoundError) IsRunnerError() bool { return true }

// ProcessStartError indicates the emulator process could not be spawned.
type ProcessStartError struct {
	Binary string
	Err    error
}

func (e *ProcessStartError) Error() string {
	if e.Binary == "" {
		return fmt.Sprintf("failed to start emulator: %v", e.Err)
	}

	return fmt.Sprintf("failed to start emulator %s: %v", e.Binary, e.Err)
}

func (e *ProcessStartError) Unwrap() error {
	return e.Err
}

// IsRunnerError implements RunnerError.
func (e *ProcessStartError) IsRunnerError() bool { return true }

// InvocationError indicates the emulator answered with a non-success status.
type InvocationError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("failed to fetch from %s with %s", e.URL, e.Status)
}

// IsRunnerError implements RunnerError.
func (e *InvocationError) IsRunnerError() bool { return true }

// TransportError indicates the emulator could not be reached.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to reach emulator at %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRunnerError implements RunnerError.
func (e *TransportError) IsRunnerError() bool { return true }

// EventEncodeError indicates the invocation event could not be serialized.
type EventEncodeError struct {
	Err error
}

func (e *EventEncodeError) Error() string {
	return fmt.Sprintf("failed to encode event: %v", e.Err)
}

func (e *EventEncodeError) Unwrap() error {
	return e.Err
}

// IsRunnerError implements RunnerError.
func (e *EventEncodeError) IsRunnerError() bool { return true }

// ResponseDecodeError indicates the emulator response body was not valid JSON.
// The raw body is preserved.
type ResponseDecodeError struct {
	Body string
	Err  error
}

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("failed to decode emulator response: %v", e.Err)
}

func (e *ResponseDecodeError) Unwrap() error {
	return e.Err
}

// IsRunnerError implements RunnerError.
func (e *ResponseDecodeError) IsRunnerError() bool { return true }
