package subprocess

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/rie-runner-go/internal/errors"
	"github.com/wagiedev/rie-runner-go/internal/metrics"
	"github.com/wagiedev/rie-runner-go/internal/readiness"
)

const (
	// maxScanTokenSize is the maximum length of a single forwarded output line.
	maxScanTokenSize = 1024 * 1024 // 1MB

	// OutputPrefix marks forwarded lines as emulator output.
	OutputPrefix = "RIE: "

	streamStderr = "stderr"
	streamStdout = "stdout"
)

// Config describes the process to spawn.
type Config struct {
	// Binary is the executable to run.
	Binary string

	// Args are the command line arguments, excluding the binary.
	Args []string

	// Env is the complete process environment.
	Env []string

	// ForwardStdout also forwards stdout. Stderr is always forwarded.
	ForwardStdout bool

	// OutputHandler receives each output line with OutputPrefix prepended.
	// If nil, lines are logged at info level with a stream attribute.
	OutputHandler func(line string)

	// OnFirstOutput runs once, when the first chunk of stderr arrives.
	OnFirstOutput func()

	// Metrics records process events. May be nil.
	Metrics *metrics.Recorder
}

// Process is a running emulator.
type Process struct {
	log     *slog.Logger
	cmd     *exec.Cmd
	metrics *metrics.Recorder

	mu      sync.Mutex
	closing bool // Whether Terminate has been called

	done    chan struct{}
	waitErr error
}

// Start spawns the process described by cfg and begins forwarding its output.
//
// Returns *errors.ProcessStartError if the process cannot be spawned.
func Start(log *slog.Logger, cfg *Config) (*Process, error) {
	log = log.With("component", "subprocess")

	//nolint:gosec // G204: the emulator binary and its arguments are built by this module
	cmd := exec.Command(cfg.Binary, cfg.Args...)
	cmd.Env = cfg.Env
	setProcessGroup(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		cfg.Metrics.ProcessStarted(err)

		return nil, &errors.ProcessStartError{Binary: cfg.Binary, Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	var stdout io.ReadCloser

	if cfg.ForwardStdout {
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			cfg.Metrics.ProcessStarted(err)

			return nil, &errors.ProcessStartError{Binary: cfg.Binary, Err: fmt.Errorf("stdout pipe: %w", err)}
		}
	}

	if err := cmd.Start(); err != nil {
		log.Error("Failed to start emulator process", "binary", cfg.Binary, "error", err)
		cfg.Metrics.ProcessStarted(err)

		return nil, &errors.ProcessStartError{Binary: cfg.Binary, Err: err}
	}

	cfg.Metrics.ProcessStarted(nil)

	p := &Process{
		log:     log.With("pid", cmd.Process.Pid),
		cmd:     cmd,
		metrics: cfg.Metrics,
		done:    make(chan struct{}),
	}

	p.log.Info("Emulator process started", "binary", cfg.Binary, "args", cfg.Args)

	var stderrReader io.Reader = stderr
	if cfg.OnFirstOutput != nil {
		stderrReader = readiness.NotifyReader(stderr, cfg.OnFirstOutput)
	}

	var streams errgroup.Group

	streams.Go(func() error {
		p.forward(streamStderr, stderrReader, cfg.OutputHandler)

		return nil
	})

	if stdout != nil {
		streams.Go(func() error {
			p.forward(streamStdout, stdout, cfg.OutputHandler)

			return nil
		})
	}

	go p.reap(&streams)

	return p, nil
}

// forward sends each line of r to handler until EOF.
// A nil handler logs the lines at info level with a stream attribute.
func (p *Process) forward(stream string, r io.Reader, handler func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		p.metrics.OutputLine(stream)

		line := OutputPrefix + scanner.Text()
		if handler != nil {
			handler(line)

			continue
		}

		p.log.Info(line, "stream", stream)
	}

	if err := scanner.Err(); err != nil {
		p.log.Debug("Emulator output scanner error", "stream", stream, "error", err)

		// Keep draining so the emulator never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)
	}
}

// reap waits for the output streams to drain, then for the process to exit.
func (p *Process) reap(streams *errgroup.Group) {
	defer close(p.done)

	// All reads must finish before Wait closes the pipes.
	_ = streams.Wait()

	err := p.cmd.Wait()
	p.waitErr = err

	p.mu.Lock()
	expected := p.closing
	p.mu.Unlock()

	p.metrics.ProcessExited(expected)

	exitCode := p.cmd.ProcessState.ExitCode()

	switch {
	case expected:
		p.log.Debug("Emulator process terminated", "exit_code", exitCode)
	case err != nil:
		p.log.Warn("Emulator process exited unexpectedly", "exit_code", exitCode, "error", err)
	default:
		p.log.Warn("Emulator process exited unexpectedly", "exit_code", exitCode)
	}
}

// Pid returns the operating system process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done returns a channel that is closed once the process has exited and its
// output has been fully forwarded.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the result of waiting on the process. Only meaningful after Done is closed.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.waitErr
	default:
		return nil
	}
}

// Terminate sends SIGTERM to the process without waiting for it to exit.
//
// It is safe to call Terminate multiple times or on a process that has
// already exited; neither case is reported as an error.
func (p *Process) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closing {
		return nil
	}

	p.closing = true

	select {
	case <-p.done:
		p.log.Debug("Emulator process already exited")

		return nil
	default:
	}

	p.log.Debug("Terminating emulator process")

	if err := signalTerminate(p.cmd.Process); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminate emulator (pid %d): %w", p.cmd.Process.Pid, err)
	}

	return nil
}
