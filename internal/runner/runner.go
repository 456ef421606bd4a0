package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/rie-runner-go/internal/config"
	"github.com/wagiedev/rie-runner-go/internal/errors"
	"github.com/wagiedev/rie-runner-go/internal/invoke"
	"github.com/wagiedev/rie-runner-go/internal/metrics"
	"github.com/wagiedev/rie-runner-go/internal/ports"
	"github.com/wagiedev/rie-runner-go/internal/readiness"
	"github.com/wagiedev/rie-runner-go/internal/rie"
	"github.com/wagiedev/rie-runner-go/internal/subprocess"
)

// Runner owns one emulator process and the invocation bridge to it.
type Runner struct {
	log     *slog.Logger
	ports   ports.Pair
	process *subprocess.Process
	gate    readiness.Gate
	invoker *invoke.Client

	stopProbe context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// New allocates ports and starts the emulator for the handler at handlerPath.
//
// ctx only governs construction; the emulator keeps running until Close.
// Returns *errors.ProcessStartError if the emulator cannot be started.
func New(ctx context.Context, handlerPath string, options *config.Options) (*Runner, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if options == nil {
		options = &config.Options{}
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	log = log.With("component", "runner", "runner_id", ulid.Make().String())

	recorder, err := metrics.New(options.MetricsRegisterer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	mode := options.Readiness
	if mode == "" {
		mode = config.ReadinessFirstOutput
	}

	if mode != config.ReadinessFirstOutput && mode != config.ReadinessProbe {
		return nil, fmt.Errorf("unknown readiness strategy %q", mode)
	}

	host := options.Host
	if host == "" {
		host = config.DefaultHost
	}

	pair := ports.Allocate(options.PortRange, options.Rand)
	log.Debug("Allocated emulator ports",
		"port_range", options.PortRange,
		"public_port", pair.Public,
		"internal_port", pair.Internal,
	)

	bootstrap, err := rie.BootstrapPath(handlerPath)
	if err != nil {
		recorder.ProcessStarted(err)

		return nil, &errors.ProcessStartError{Err: err}
	}

	binary, err := rie.NewDiscoverer(&rie.Config{
		BinaryPath: options.BinaryPath,
		Logger:     log,
	}).Discover()
	if err != nil {
		recorder.ProcessStarted(err)

		return nil, &errors.ProcessStartError{Err: err}
	}

	r := &Runner{
		log:   log,
		ports: pair,
	}

	procCfg := &subprocess.Config{
		Binary:        binary,
		Args:          rie.BuildArgs(bootstrap, pair.Public, pair.Internal),
		Env:           rie.BuildEnvironment(options.Env),
		ForwardStdout: !options.DisableStdoutForwarding,
		OutputHandler: options.OutputHandler,
		Metrics:       recorder,
	}

	var probe *readiness.Probe

	if mode == config.ReadinessProbe {
		addr := net.JoinHostPort(host, strconv.Itoa(pair.Public))
		probe = readiness.NewProbe(log, addr, options.ProbeInterval, nil)
		r.gate = probe
	} else {
		latch := readiness.NewLatch()
		procCfg.OnFirstOutput = latch.Signal
		r.gate = latch
	}

	r.process, err = subprocess.Start(log, procCfg)
	if err != nil {
		return nil, err
	}

	if probe != nil {
		probeCtx, cancel := context.WithCancel(context.Background())
		r.stopProbe = cancel

		go probe.Run(probeCtx)
	}

	r.invoker = invoke.New(log, &invoke.Config{
		URL:          invoke.URL(host, pair.Public),
		Gate:         r.gate,
		Exited:       r.process.Done(),
		ReadyTimeout: options.ReadyTimeout,
		HTTPClient:   options.HTTPClient,
		Metrics:      recorder,
	})

	log.Info("Emulator runner started",
		"handler_path", handlerPath,
		"pid", r.process.Pid(),
		"public_port", pair.Public,
		"readiness", mode,
	)

	return r, nil
}

// Run waits for readiness, invokes the handler with event and returns the
// decoded JSON result.
func (r *Runner) Run(ctx context.Context, event any) (any, error) {
	return r.invoker.Run(ctx, event)
}

// RunInto is like Run but decodes the result into out.
func (r *Runner) RunInto(ctx context.Context, event, out any) error {
	return r.invoker.Into(ctx, event, out)
}

// RunRaw is like Run but returns the result body unchanged.
func (r *Runner) RunRaw(ctx context.Context, event any) (json.RawMessage, error) {
	return r.invoker.Raw(ctx, event)
}

// Close terminates the emulator without waiting for it to exit.
//
// In-flight invocations are not cancelled; they fail once the emulator's
// connections drop. Invocations still waiting for readiness fail with
// errors.ErrEmulatorExited once the process is gone. Calling Close more than
// once is safe.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	if r.stopProbe != nil {
		r.stopProbe()
	}

	r.log.Debug("Closing emulator runner")

	return r.process.Terminate()
}
