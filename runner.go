package rierunner

import (
	"context"
	"encoding/json"

	"github.com/wagiedev/rie-runner-go/internal/runner"
)

// Runner relays invocation events to one aws-lambda-rie process.
//
// Lifecycle: the emulator is started by New and runs until Close. Runners
// are single-use and never restart a dead emulator; create a new one instead.
//
// Run, RunInto and RunRaw are safe for concurrent use. Each call waits for
// the emulator to become ready and then makes its own HTTP request.
//
// Example usage:
//
//	runner, err := rierunner.New(ctx, "./build/hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Close()
//
//	result, err := runner.Run(ctx, map[string]any{"name": "world"})
type Runner interface {
	// Run sends event to the handler and returns the decoded JSON result.
	// Returns InvocationError for a non-2xx status and TransportError when
	// the emulator cannot be reached.
	Run(ctx context.Context, event any) (any, error)

	// RunInto sends event to the handler and decodes the result into out.
	RunInto(ctx context.Context, event, out any) error

	// RunRaw sends event to the handler and returns the result body unchanged.
	RunRaw(ctx context.Context, event any) (json.RawMessage, error)

	// Close sends the emulator a termination signal and returns without
	// waiting for it to exit. In-flight invocations are not cancelled.
	// Invocations still waiting for readiness fail with ErrEmulatorExited
	// once the emulator is gone. Calling Close more than once is safe.
	Close() error
}

// Compile-time check that *runner.Runner implements the Runner interface.
var _ Runner = (*runner.Runner)(nil)

// New starts an emulator for the handler directory at handlerPath.
//
// The directory must contain a bootstrap executable. New returns as soon as
// the process is spawned; readiness is awaited by each Run call.
// Returns ProcessStartError if the emulator cannot be found or started.
func New(ctx context.Context, handlerPath string, opts ...Option) (Runner, error) {
	r, err := runner.New(ctx, handlerPath, applyOptions(opts))
	if err != nil {
		return nil, err
	}

	return r, nil
}
