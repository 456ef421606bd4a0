// Package config provides configuration types for the emulator runner.
package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wagiedev/rie-runner-go/internal/ports"
)

// Readiness selects how the runner decides the emulator accepts invocations.
type Readiness string

const (
	// ReadinessFirstOutput treats the first byte on the emulator's stderr as ready.
	ReadinessFirstOutput Readiness = "first-output"
	// ReadinessProbe waits until the emulator's listen port accepts a TCP connection.
	ReadinessProbe Readiness = "probe"
)

// DefaultHost is the host invocations are sent to.
const DefaultHost = "localhost"

// Options configures a runner.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Env provides environment overrides for the emulator process.
	// Overrides win over the inherited process environment.
	Env map[string]string

	// PortRange is a "<min>-<max>" specifier for the emulator ports.
	// Empty or malformed values select the default range.
	PortRange string

	// BinaryPath is the explicit path to the aws-lambda-rie binary.
	// If empty, the binary is searched for.
	BinaryPath string

	// OutputHandler receives every emulator output line, prefixed with "RIE: ".
	// If nil, lines are logged at info level through Logger.
	OutputHandler func(line string)

	// DisableStdoutForwarding stops forwarding of the emulator's stdout.
	// Stderr is always forwarded.
	DisableStdoutForwarding bool

	// Readiness selects the readiness strategy. Defaults to ReadinessFirstOutput.
	Readiness Readiness

	// ProbeInterval is the delay between connection attempts for ReadinessProbe.
	ProbeInterval time.Duration

	// ReadyTimeout bounds the readiness wait of each invocation.
	// Zero waits indefinitely.
	ReadyTimeout time.Duration

	// HTTPClient performs invocation requests. Defaults to a client without timeout.
	HTTPClient *http.Client

	// Host is the host invocations are sent to. Defaults to DefaultHost.
	Host string

	// Rand drives port allocation. Defaults to the math/rand/v2 global source.
	Rand ports.Rand

	// MetricsRegisterer receives the runner's Prometheus collectors.
	// If nil, no metrics are recorded.
	MetricsRegisterer prometheus.Registerer
}
