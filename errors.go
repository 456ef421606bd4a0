package rierunner

import "github.com/wagiedev/rie-runner-go/internal/errors"

// Re-export error types from internal package

// BinaryNotFoundError indicates the aws-lambda-rie binary was not found.
type BinaryNotFoundError = errors.BinaryNotFoundError

// ProcessStartError indicates the emulator process could not be spawned.
type ProcessStartError = errors.ProcessStartError

// InvocationError indicates the emulator answered with a non-success status.
type InvocationError = errors.InvocationError

// TransportError indicates the emulator could not be reached.
type TransportError = errors.TransportError

// EventEncodeError indicates the invocation event could not be serialized.
type EventEncodeError = errors.EventEncodeError

// ResponseDecodeError indicates the emulator response was not valid JSON.
type ResponseDecodeError = errors.ResponseDecodeError

// RunnerError is the base interface for all runner errors.
type RunnerError = errors.RunnerError

// Re-export sentinel errors from internal package.
var (
	// ErrInvalidRange indicates a port range specifier could not be parsed.
	ErrInvalidRange = errors.ErrInvalidRange

	// ErrReadyTimeout indicates the emulator was not ready within WithReadyTimeout.
	ErrReadyTimeout = errors.ErrReadyTimeout

	// ErrEmulatorExited indicates the emulator exited, or was closed, before
	// it became ready.
	ErrEmulatorExited = errors.ErrEmulatorExited
)
