// Package invoke sends invocation events to a ready emulator over HTTP.
package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/rie-runner-go/internal/errors"
	"github.com/wagiedev/rie-runner-go/internal/metrics"
	"github.com/wagiedev/rie-runner-go/internal/readiness"
)

// Path is the emulator's invocation endpoint.
const Path = "/2015-03-31/functions/function/invocations"

// URL returns the invocation URL for an emulator listening on host:port.
func URL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + Path
}

// Config configures a Client.
type Config struct {
	// URL is the full invocation URL.
	URL string

	// Gate holds invocations until the emulator is ready.
	Gate readiness.Gate

	// ReadyTimeout bounds each readiness wait. Zero waits indefinitely.
	ReadyTimeout time.Duration

	// Exited is closed when the emulator process is gone. Waiters still
	// blocked on Gate then fail with errors.ErrEmulatorExited. May be nil.
	Exited <-chan struct{}

	// HTTPClient performs the request. Defaults to a client without timeout.
	HTTPClient *http.Client

	// Metrics records invocation outcomes. May be nil.
	Metrics *metrics.Recorder
}

// Client bridges invocation events to the emulator.
// It is safe for concurrent use; every call makes its own HTTP round trip.
type Client struct {
	log          *slog.Logger
	url          string
	gate         readiness.Gate
	exited       <-chan struct{}
	readyTimeout time.Duration
	http         *http.Client
	metrics      *metrics.Recorder
}

// New creates a Client.
func New(log *slog.Logger, cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		log:          log.With("component", "invoke"),
		url:          cfg.URL,
		gate:         cfg.Gate,
		exited:       cfg.Exited,
		readyTimeout: cfg.ReadyTimeout,
		http:         httpClient,
		metrics:      cfg.Metrics,
	}
}

// URL returns the invocation URL.
func (c *Client) URL() string {
	return c.url
}

// Raw waits for readiness, posts event as JSON and returns the response body
// unchanged. The body must be valid JSON.
func (c *Client) Raw(ctx context.Context, event any) (json.RawMessage, error) {
	invocationID := ulid.Make().String()
	log := c.log.With("invocation_id", invocationID)

	if err := c.waitReady(ctx); err != nil {
		log.Debug("Invocation abandoned before emulator was ready", "error", err)
		c.metrics.Invocation(metrics.OutcomeNotReady, 0)

		return nil, err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		c.metrics.Invocation(metrics.OutcomeEncodeError, 0)

		return nil, &errors.EventEncodeError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		c.metrics.Invocation(metrics.OutcomeTransportError, 0)

		return nil, &errors.TransportError{URL: c.url, Err: err}
	}

	req.Header.Set("Content-Type", "application/json")

	log.Debug("Sending invocation", "url", c.url, "payload_len", len(payload))

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug("Invocation request failed", "error", err)
		c.metrics.Invocation(metrics.OutcomeTransportError, time.Since(start))

		return nil, &errors.TransportError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.Invocation(metrics.OutcomeTransportError, time.Since(start))

		return nil, &errors.TransportError{URL: c.url, Err: fmt.Errorf("read response: %w", err)}
	}

	elapsed := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Debug("Emulator returned failure status", "status", resp.StatusCode)
		c.metrics.Invocation(metrics.OutcomeInvocationError, elapsed)

		return nil, &errors.InvocationError{
			URL:        c.url,
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
		}
	}

	if !json.Valid(body) {
		c.metrics.Invocation(metrics.OutcomeDecodeError, elapsed)

		return nil, &errors.ResponseDecodeError{
			Body: string(body),
			Err:  stderrors.New("response body is not valid JSON"),
		}
	}

	log.Debug("Invocation completed", "status", resp.StatusCode, "duration", elapsed.String())
	c.metrics.Invocation(metrics.OutcomeSuccess, elapsed)

	return body, nil
}

// Into runs event and decodes the response into out.
func (c *Client) Into(ctx context.Context, event, out any) error {
	body, err := c.Raw(ctx, event)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &errors.ResponseDecodeError{Body: string(body), Err: err}
	}

	return nil
}

// Run runs event and returns the decoded response.
func (c *Client) Run(ctx context.Context, event any) (any, error) {
	var result any

	if err := c.Into(ctx, event, &result); err != nil {
		return nil, err
	}

	return result, nil
}

// waitReady blocks on the readiness gate, bounded by ctx, ReadyTimeout and
// the emulator's exit.
func (c *Client) waitReady(ctx context.Context) error {
	start := time.Now()
	defer func() { c.metrics.ReadyWait(time.Since(start)) }()

	if c.readyTimeout <= 0 {
		return c.await(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.readyTimeout)
	defer cancel()

	err := c.await(waitCtx)
	if err != nil && ctx.Err() == nil && stderrors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", errors.ErrReadyTimeout, c.readyTimeout)
	}

	return err
}

// await returns nil once the gate is open. An open gate wins over a
// concurrent exit, so a finished emulator still yields a transport error.
func (c *Client) await(ctx context.Context) error {
	ready := c.gate.Done()

	select {
	case <-ready:
		return nil
	default:
	}

	select {
	case <-ready:
		return nil
	case <-c.exited:
		select {
		case <-ready:
			return nil
		default:
			return errors.ErrEmulatorExited
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// statusText returns the reason phrase of resp, such as "Internal Server Error".
func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}

	return resp.Status
}
