package readiness

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// DefaultProbeInterval is the delay between connection attempts.
const DefaultProbeInterval = 50 * time.Millisecond

// Dialer opens network connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Probe is a Gate that opens once a TCP connection to Addr succeeds.
type Probe struct {
	*Latch

	addr     string
	interval time.Duration
	dialer   Dialer
	log      *slog.Logger
}

// Compile-time verification that Probe implements Gate.
var _ Gate = (*Probe)(nil)

// NewProbe creates a probe for addr. Call Run to start probing.
func NewProbe(log *slog.Logger, addr string, interval time.Duration, dialer Dialer) *Probe {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}

	if dialer == nil {
		dialer = &net.Dialer{Timeout: time.Second}
	}

	return &Probe{
		Latch:    NewLatch(),
		addr:     addr,
		interval: interval,
		dialer:   dialer,
		log:      log,
	}
}

// Run dials Addr until it accepts a connection or ctx is done.
// The gate opens on the first successful dial.
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	attempts := 0

	for {
		attempts++

		conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
		if err == nil {
			_ = conn.Close()

			p.log.Debug("Emulator accepted probe connection", "addr", p.addr, "attempts", attempts)
			p.Signal()

			return
		}

		select {
		case <-ctx.Done():
			p.log.Debug("Readiness probe stopped", "addr", p.addr, "attempts", attempts, "error", ctx.Err())

			return
		case <-ticker.C:
		}
	}
}
