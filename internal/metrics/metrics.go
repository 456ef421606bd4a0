// Package metrics provides Prometheus metrics for the emulator runner.
//
// A nil *Recorder is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Invocation outcomes.
const (
	OutcomeSuccess         = "success"
	OutcomeInvocationError = "invocation_error"
	OutcomeTransportError  = "transport_error"
	OutcomeEncodeError     = "encode_error"
	OutcomeDecodeError     = "decode_error"
	OutcomeNotReady        = "not_ready"
)

// Recorder holds the runner collectors.
type Recorder struct {
	processStarts      *prometheus.CounterVec
	processExits       *prometheus.CounterVec
	outputLines        *prometheus.CounterVec
	invocations        *prometheus.CounterVec
	invocationDuration prometheus.Histogram
	readyWait          prometheus.Histogram
}

// New creates a Recorder registered on reg. It returns nil when reg is nil.
//
// Collectors already registered on reg by another runner are reused, so any
// number of runners can share one registry.
func New(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		return nil, nil
	}

	r := &Recorder{
		processStarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rie_runner_process_starts_total",
				Help: "Emulator process start attempts by result",
			},
			[]string{"result"},
		),
		processExits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rie_runner_process_exits_total",
				Help: "Emulator process exits, split by whether Close requested them",
			},
			[]string{"expected"},
		),
		outputLines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rie_runner_output_lines_total",
				Help: "Emulator output lines forwarded to the log sink",
			},
			[]string{"stream"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rie_runner_invocations_total",
				Help: "Invocations by outcome",
			},
			[]string{"outcome"},
		),
		invocationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rie_runner_invocation_duration_seconds",
				Help:    "HTTP round trip time of invocations",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
			},
		),
		readyWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rie_runner_ready_wait_seconds",
				Help:    "Time invocations spent waiting for emulator readiness",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
			},
		),
	}

	var err error

	if r.processStarts, err = register(reg, r.processStarts); err != nil {
		return nil, err
	}

	if r.processExits, err = register(reg, r.processExits); err != nil {
		return nil, err
	}

	if r.outputLines, err = register(reg, r.outputLines); err != nil {
		return nil, err
	}

	if r.invocations, err = register(reg, r.invocations); err != nil {
		return nil, err
	}

	if r.invocationDuration, err = register(reg, r.invocationDuration); err != nil {
		return nil, err
	}

	if r.readyWait, err = register(reg, r.readyWait); err != nil {
		return nil, err
	}

	return r, nil
}

// register registers c, returning the existing collector if an identical one is
// already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := errors.AsType[prometheus.AlreadyRegisteredError](err); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}

		return c, err
	}

	return c, nil
}

// ProcessStarted records a start attempt.
func (r *Recorder) ProcessStarted(err error) {
	if r == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	r.processStarts.WithLabelValues(result).Inc()
}

// ProcessExited records a process exit.
func (r *Recorder) ProcessExited(expected bool) {
	if r == nil {
		return
	}

	label := "false"
	if expected {
		label = "true"
	}

	r.processExits.WithLabelValues(label).Inc()
}

// OutputLine records one forwarded line from stream.
func (r *Recorder) OutputLine(stream string) {
	if r == nil {
		return
	}

	r.outputLines.WithLabelValues(stream).Inc()
}

// ReadyWait records how long an invocation waited for readiness.
func (r *Recorder) ReadyWait(d time.Duration) {
	if r == nil {
		return
	}

	r.readyWait.Observe(d.Seconds())
}

// Invocation records an invocation outcome and, for completed round trips, its duration.
func (r *Recorder) Invocation(outcome string, d time.Duration) {
	if r == nil {
		return
	}

	r.invocations.WithLabelValues(outcome).Inc()

	if d > 0 {
		r.invocationDuration.Observe(d.Seconds())
	}
}
