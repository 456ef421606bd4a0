package rierunner

import (
	"context"
	"fmt"
)

// WithRunner manages runner lifecycle with automatic cleanup.
//
// This helper starts a runner for handlerPath, executes the callback, and
// always calls Close afterwards, even if the callback fails. If the callback
// returns an error, it is returned to the caller. If Close fails, a warning is
// logged but does not override the callback's error.
//
// Example usage:
//
//	err := rierunner.WithRunner(ctx, "./build/hello", func(r rierunner.Runner) error {
//	    result, err := r.Run(ctx, map[string]any{"name": "world"})
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(result)
//	    return nil
//	},
//	    rierunner.WithLogger(log),
//	    rierunner.WithPortRange("59000-59999"),
//	)
func WithRunner(ctx context.Context, handlerPath string, fn func(Runner) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	r, err := New(ctx, handlerPath, opts...)
	if err != nil {
		return fmt.Errorf("failed to start runner: %w", err)
	}

	defer func() {
		if closeErr := r.Close(); closeErr != nil {
			log.Warn("failed to close runner", "error", closeErr)
		}
	}()

	return fn(r)
}
