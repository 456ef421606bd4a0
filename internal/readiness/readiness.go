// Package readiness provides the gates that hold invocations until the
// emulator is assumed to accept HTTP traffic.
//
// Two strategies exist. The first-output strategy opens the gate on the first
// byte the emulator writes to stderr; nothing about the content is inspected.
// The probe strategy opens it once a TCP connection to the emulator's listen
// address succeeds. Both resolve exactly once and never re-arm.
package readiness

import (
	"context"
	"io"
	"sync"
)

// Gate is a one-shot readiness signal shared by all invocations.
type Gate interface {
	// Wait blocks until the gate opens or ctx is done.
	// Once open, Wait returns nil immediately for every caller.
	Wait(ctx context.Context) error

	// Done returns a channel that is closed when the gate opens.
	Done() <-chan struct{}
}

// Latch is a Gate opened by an explicit Signal call.
type Latch struct {
	once sync.Once
	done chan struct{}
}

// Compile-time verification that Latch implements Gate.
var _ Gate = (*Latch)(nil)

// NewLatch returns an unsignalled latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Signal opens the latch. Calls after the first are no-ops.
func (l *Latch) Signal() {
	l.once.Do(func() { close(l.done) })
}

// Done implements Gate.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Wait implements Gate.
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return nil
	default:
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NotifyReader wraps r so that fn runs once, on the first Read that returns data.
func NotifyReader(r io.Reader, fn func()) io.Reader {
	return &notifyReader{r: r, fn: fn}
}

type notifyReader struct {
	r    io.Reader
	fn   func()
	once sync.Once
}

func (n *notifyReader) Read(p []byte) (int, error) {
	count, err := n.r.Read(p)
	if count > 0 {
		n.once.Do(n.fn)
	}

	return count, err
}
