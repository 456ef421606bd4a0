// Package rierunner runs Lambda handlers locally through the AWS Lambda
// Runtime Interface Emulator (aws-lambda-rie).
//
// A Runner spawns one emulator process for a handler directory, waits for it
// to come up, and relays invocation events to it over HTTP. Ports are picked
// at random from a configurable range, so several runners can coexist.
//
// # Basic Usage
//
//	runner, err := rierunner.New(ctx, "./build/hello",
//	    rierunner.WithEnv(map[string]string{"AWS_LAMBDA_FUNCTION_NAME": "hello"}),
//	    rierunner.WithPortRange("59000-59999"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer runner.Close()
//
//	result, err := runner.Run(ctx, map[string]any{"name": "world"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The handler directory must contain a "bootstrap" executable. The emulator
// binary is located through WithBinaryPath, the AWS_LAMBDA_RIE_PATH
// environment variable, PATH, or a few common install locations.
//
// # Readiness
//
// Invocations wait until the emulator is ready. By default the first output
// the emulator writes to stderr counts as ready. WithReadiness(ReadinessProbe)
// switches to polling the listen port instead. There is no timeout unless
// WithReadyTimeout is set or the context passed to Run expires.
//
// # Lifecycle
//
// The emulator runs until Close. Nothing closes it automatically, so callers
// must call Close, or use WithRunner which does so for them:
//
//	err := rierunner.WithRunner(ctx, "./build/hello", func(r rierunner.Runner) error {
//	    _, err := r.Run(ctx, event)
//	    return err
//	})
//
// # Logging
//
// Emulator output is forwarded line by line, prefixed with "RIE: ". It goes
// to the logger set with WithLogger, or to a handler set with WithOutputHandler.
// With neither set the output is dropped:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	runner, err := rierunner.New(ctx, dir, rierunner.WithLogger(logger))
//
// # Error Handling
//
// The package provides typed errors for different failure scenarios:
//
//	result, err := runner.Run(ctx, event)
//	if err != nil {
//	    if invErr, ok := errors.AsType[*rierunner.InvocationError](err); ok {
//	        log.Printf("handler failed with %s", invErr.Status)
//	    }
//	    if _, ok := errors.AsType[*rierunner.TransportError](err); ok {
//	        log.Print("emulator unreachable")
//	    }
//	}
//
// Failed invocations are never retried.
package rierunner
