package runner

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/rie-runner-go/internal/config"
	"github.com/wagiedev/rie-runner-go/internal/errors"
	"github.com/wagiedev/rie-runner-go/internal/fakerie"
	"github.com/wagiedev/rie-runner-go/internal/invoke"
)

const (
	testPortRange = "47000-47999"
	waitTimeout   = 10 * time.Second
)

func TestMain(m *testing.M) {
	fakerie.Main()
	os.Exit(m.Run())
}

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) handle(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = append(c.lines, line)
}

func (c *lineCollector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return slices.Clone(c.lines)
}

// newRunner starts a runner backed by the fake emulator and closes it on cleanup.
func newRunner(t *testing.T, extraEnv map[string]string, mutate func(*config.Options)) *Runner {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("Test requires Unix process semantics")
	}

	binary, err := fakerie.Binary()
	require.NoError(t, err)

	options := &config.Options{
		BinaryPath:    binary,
		Env:           fakerie.Env(extraEnv),
		PortRange:     testPortRange,
		OutputHandler: func(string) {},
	}

	if mutate != nil {
		mutate(options)
	}

	r, err := New(context.Background(), t.TempDir(), options)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = r.Close()

		select {
		case <-r.process.Done():
		case <-time.After(waitTimeout):
			t.Error("emulator did not exit after Close")
		}
	})

	return r
}

func runCtx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	t.Cleanup(cancel)

	return ctx
}

func TestRunner_ReturnsEmulatorResult(t *testing.T) {
	r := newRunner(t, nil, nil)

	result, err := r.Run(runCtx(t), map[string]any{"hello": "world"})

	require.NoError(t, err)
	require.Equal(t, map[string]any{"ok": true}, result)
}

func TestRunner_RunRawAndRunInto(t *testing.T) {
	r := newRunner(t, nil, nil)
	ctx := runCtx(t)

	raw, err := r.RunRaw(ctx, map[string]any{})
	require.NoError(t, err)
	require.JSONEq(t, `{"ok":true}`, string(raw))

	var out struct {
		OK bool `json:"ok"`
	}

	require.NoError(t, r.RunInto(ctx, map[string]any{}, &out))
	require.True(t, out.OK)
}

func TestRunner_FailureStatus(t *testing.T) {
	r := newRunner(t, nil, nil)

	_, err := r.Run(runCtx(t), map[string]any{"fail": true})

	require.Error(t, err)
	require.Contains(t, err.Error(), r.invoker.URL())
	require.Contains(t, err.Error(), "Internal Server Error")
	require.True(t, strings.HasPrefix(r.invoker.URL(), "http://localhost:"))
	require.True(t, strings.HasSuffix(r.invoker.URL(), invoke.Path))

	invErr, ok := stderrors.AsType[*errors.InvocationError](err)
	require.True(t, ok)
	require.Equal(t, 500, invErr.StatusCode)
}

func TestRunner_PassesArgumentsAndEnvironment(t *testing.T) {
	t.Setenv("RIE_RUNNER_TEST_VALUE", "from-process")

	r := newRunner(t, map[string]string{"RIE_RUNNER_TEST_VALUE": "from-override"}, nil)

	var got struct {
		Bootstrap string `json:"bootstrap"`
		Listen    string `json:"listen"`
		RapidPort int    `json:"rapid_port"`
		Env       string `json:"env"`
	}

	require.NoError(t, r.RunInto(runCtx(t), map[string]any{"inspect": "RIE_RUNNER_TEST_VALUE"}, &got))

	require.Equal(t, "from-override", got.Env)
	require.Equal(t, "0.0.0.0:"+strconv.Itoa(r.ports.Public), got.Listen)
	require.Equal(t, r.ports.Public+1, got.RapidPort)
	require.Equal(t, "bootstrap", filepath.Base(got.Bootstrap))
	require.True(t, filepath.IsAbs(got.Bootstrap))
	require.GreaterOrEqual(t, r.ports.Public, 47000)
	require.LessOrEqual(t, r.ports.Internal, 47999)
}

func TestRunner_ForwardsOutput(t *testing.T) {
	collector := &lineCollector{}

	r := newRunner(t, nil, func(o *config.Options) {
		o.OutputHandler = collector.handle
	})

	_, err := r.Run(runCtx(t), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		lines := collector.snapshot()

		return slices.Contains(lines, "RIE: fake emulator stdout") &&
			slices.ContainsFunc(lines, func(l string) bool { return strings.HasPrefix(l, "RIE: START RAPID") })
	}, waitTimeout, 10*time.Millisecond)
}

func TestRunner_StdoutForwardingDisabled(t *testing.T) {
	collector := &lineCollector{}

	r := newRunner(t, nil, func(o *config.Options) {
		o.OutputHandler = collector.handle
		o.DisableStdoutForwarding = true
	})

	_, err := r.Run(runCtx(t), nil)
	require.NoError(t, err)

	require.NoError(t, r.Close())
	<-r.process.Done()

	for _, line := range collector.snapshot() {
		require.NotEqual(t, "RIE: fake emulator stdout", line)
	}
}

// TestRunner_ReadinessReleasesAllWaiters checks that invocations issued before
// the emulator writes anything are held, then all released by the first output.
func TestRunner_ReadinessReleasesAllWaiters(t *testing.T) {
	trigger := filepath.Join(t.TempDir(), "ready")

	r := newRunner(t, map[string]string{fakerie.TriggerFileEnv: trigger}, nil)
	ctx := runCtx(t)

	var g errgroup.Group

	results := make([]any, 2)

	for i := range results {
		g.Go(func() error {
			result, err := r.Run(ctx, map[string]any{"count": true})
			results[i] = result

			return err
		})
	}

	done := make(chan error, 1)

	go func() { done <- g.Wait() }()

	select {
	case <-done:
		t.Fatal("invocations completed before the emulator produced output")
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(trigger, nil, 0o600))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(waitTimeout):
		t.Fatal("invocations were not released by readiness")
	}

	require.NotEqual(t, results[0], results[1], "each invocation performs its own round trip")
	require.ElementsMatch(t,
		[]any{map[string]any{"request": float64(1)}, map[string]any{"request": float64(2)}},
		results,
	)
}

func TestRunner_RunAfterCloseIsTransportError(t *testing.T) {
	r := newRunner(t, nil, nil)
	ctx := runCtx(t)

	_, err := r.Run(ctx, nil)
	require.NoError(t, err)

	require.NoError(t, r.Close())

	select {
	case <-r.process.Done():
	case <-time.After(waitTimeout):
		t.Fatal("emulator did not exit after Close")
	}

	_, err = r.Run(ctx, nil)

	_, ok := stderrors.AsType[*errors.TransportError](err)
	require.True(t, ok, "expected TransportError, got %v", err)
}

func TestRunner_CloseBeforeReadyReleasesWaiters(t *testing.T) {
	for _, mode := range []config.Readiness{config.ReadinessFirstOutput, config.ReadinessProbe} {
		t.Run(string(mode), func(t *testing.T) {
			trigger := filepath.Join(t.TempDir(), "never")

			r := newRunner(t, map[string]string{
				fakerie.TriggerFileEnv: trigger,
				fakerie.SilentEnv:      "1",
			}, func(o *config.Options) {
				o.Readiness = mode
				// Unroutable, so the probe never connects.
				o.Host = "192.0.2.1"
			})

			errs := make(chan error, 1)

			go func() {
				_, err := r.Run(context.Background(), nil)
				errs <- err
			}()

			time.Sleep(50 * time.Millisecond)
			require.NoError(t, r.Close())

			select {
			case err := <-errs:
				require.ErrorIs(t, err, errors.ErrEmulatorExited)
			case <-time.After(waitTimeout):
				t.Fatal("pending invocation was not released by Close")
			}

			_, err := r.Run(context.Background(), nil)
			require.ErrorIs(t, err, errors.ErrEmulatorExited)
		})
	}
}

func TestRunner_CloseIsIdempotent(t *testing.T) {
	r := newRunner(t, nil, nil)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestRunner_ProbeReadiness(t *testing.T) {
	r := newRunner(t, map[string]string{fakerie.SilentEnv: "1"}, func(o *config.Options) {
		o.Readiness = config.ReadinessProbe
		o.ProbeInterval = 10 * time.Millisecond
	})

	result, err := r.Run(runCtx(t), nil)

	require.NoError(t, err)
	require.Equal(t, map[string]any{"ok": true}, result)
}

func TestRunner_ReadyTimeoutWithSilentEmulator(t *testing.T) {
	r := newRunner(t, map[string]string{fakerie.SilentEnv: "1"}, func(o *config.Options) {
		o.ReadyTimeout = 100 * time.Millisecond
	})

	_, err := r.Run(runCtx(t), nil)

	require.ErrorIs(t, err, errors.ErrReadyTimeout)
}

func TestRunner_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	r := newRunner(t, nil, func(o *config.Options) {
		o.MetricsRegisterer = reg
	})

	_, err := r.Run(runCtx(t), nil)
	require.NoError(t, err)

	expected := `
# HELP rie_runner_process_starts_total Emulator process start attempts by result
# TYPE rie_runner_process_starts_total counter
rie_runner_process_starts_total{result="ok"} 1
# HELP rie_runner_invocations_total Invocations by outcome
# TYPE rie_runner_invocations_total counter
rie_runner_invocations_total{outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"rie_runner_process_starts_total", "rie_runner_invocations_total"))
}

func TestNew_MissingBinary(t *testing.T) {
	_, err := New(context.Background(), t.TempDir(), &config.Options{
		BinaryPath: "/nonexistent/aws-lambda-rie",
	})

	startErr, ok := stderrors.AsType[*errors.ProcessStartError](err)
	require.True(t, ok)

	notFound, ok := stderrors.AsType[*errors.BinaryNotFoundError](startErr)
	require.True(t, ok)
	require.Equal(t, []string{"/nonexistent/aws-lambda-rie"}, notFound.SearchedPaths)
}

func TestNew_UnknownReadiness(t *testing.T) {
	binary, err := fakerie.Binary()
	require.NoError(t, err)

	_, err = New(context.Background(), t.TempDir(), &config.Options{
		BinaryPath: binary,
		Readiness:  "telepathy",
	})

	require.ErrorContains(t, err, "unknown readiness strategy")
}

func TestNew_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(ctx, t.TempDir(), nil)

	require.ErrorIs(t, err, context.Canceled)
}
