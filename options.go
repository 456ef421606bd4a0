package rierunner

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures RunnerOptions using the functional options pattern.
type Option func(*RunnerOptions)

// applyOptions applies functional options to a RunnerOptions struct.
func applyOptions(opts []Option) *RunnerOptions {
	options := &RunnerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for runner diagnostics and emulator output.
// If not set, logging is disabled (silent operation) and emulator output is
// dropped unless WithOutputHandler is set.
func WithLogger(logger *slog.Logger) Option {
	return func(o *RunnerOptions) {
		o.Logger = logger
	}
}

// WithEnv provides environment overrides for the emulator process.
// They are merged over the current process environment; overrides win.
func WithEnv(env map[string]string) Option {
	return func(o *RunnerOptions) {
		o.Env = env
	}
}

// WithPortRange sets the "<min>-<max>" range the emulator ports are drawn from.
// An empty or malformed range falls back to 59000-59999.
func WithPortRange(spec string) Option {
	return func(o *RunnerOptions) {
		o.PortRange = spec
	}
}

// WithBinaryPath sets the explicit path to the aws-lambda-rie binary.
// If not set, the binary is searched for.
func WithBinaryPath(path string) Option {
	return func(o *RunnerOptions) {
		o.BinaryPath = path
	}
}

// ===== Emulator Output =====

// WithOutputHandler sets a callback for emulator output.
// Each line arrives prefixed with "RIE: ". It replaces logging of the output.
func WithOutputHandler(handler func(line string)) Option {
	return func(o *RunnerOptions) {
		o.OutputHandler = handler
	}
}

// WithStdoutForwarding controls whether the emulator's stdout is forwarded
// along with stderr. Enabled by default.
func WithStdoutForwarding(enabled bool) Option {
	return func(o *RunnerOptions) {
		o.DisableStdoutForwarding = !enabled
	}
}

// ===== Readiness =====

// WithReadiness selects the readiness strategy.
func WithReadiness(readiness Readiness) Option {
	return func(o *RunnerOptions) {
		o.Readiness = readiness
	}
}

// WithProbeInterval sets the delay between connection attempts for ReadinessProbe.
func WithProbeInterval(interval time.Duration) Option {
	return func(o *RunnerOptions) {
		o.ProbeInterval = interval
	}
}

// WithReadyTimeout bounds how long each invocation waits for readiness.
// When exceeded, Run fails with ErrReadyTimeout. By default invocations wait
// indefinitely.
func WithReadyTimeout(timeout time.Duration) Option {
	return func(o *RunnerOptions) {
		o.ReadyTimeout = timeout
	}
}

// ===== Transport =====

// WithHTTPClient sets the HTTP client used for invocations.
func WithHTTPClient(client *http.Client) Option {
	return func(o *RunnerOptions) {
		o.HTTPClient = client
	}
}

// WithHost sets the host invocations are sent to. Defaults to "localhost".
func WithHost(host string) Option {
	return func(o *RunnerOptions) {
		o.Host = host
	}
}

// ===== Advanced =====

// WithRand sets the randomness source for port allocation.
// *rand.Rand from math/rand/v2 can be passed for reproducible ports.
func WithRand(rnd PortRand) Option {
	return func(o *RunnerOptions) {
		o.Rand = rnd
	}
}

// WithMetricsRegisterer registers the runner's Prometheus metrics on reg.
// Runners sharing a registerer share their collectors.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	return func(o *RunnerOptions) {
		o.MetricsRegisterer = reg
	}
}
