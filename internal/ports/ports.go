// Package ports allocates the pair of adjacent TCP ports used by the emulator.
//
// The emulator needs two ports: a public one it listens on for invocation
// requests and an internal one (public+1) for its runtime API. Allocation is
// pure computation; no attempt is made to check that a port is free.
package ports

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/wagiedev/rie-runner-go/internal/errors"
)

const (
	// fallbackBase is the first port of the hard-coded fallback window.
	fallbackBase = 59000
	// fallbackPairs is the number of even offsets in the fallback window.
	fallbackPairs = 500

	minPort = 1
	maxPort = 65535
)

// DefaultRange is used when no range is configured or the configured range is invalid.
var DefaultRange = Range{Min: 59000, Max: 59999}

// Rand is the source of randomness for allocation.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Range is an inclusive port range.
type Range struct {
	Min int
	Max int
}

// Pair is an allocated public/internal port pair. Internal is always Public+1.
type Pair struct {
	Public   int
	Internal int
}

func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Valid reports whether r can hold at least one pair.
func (r Range) Valid() bool {
	return r.Min >= minPort && r.Max <= maxPort && r.Min < r.Max
}

// ParseRange parses a "<min>-<max>" specifier.
func ParseRange(spec string) (Range, error) {
	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("%w: %q", errors.ErrInvalidRange, spec)
	}

	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", errors.ErrInvalidRange, spec, err)
	}

	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q: %w", errors.ErrInvalidRange, spec, err)
	}

	r := Range{Min: lo, Max: hi}
	if !r.Valid() {
		return Range{}, fmt.Errorf("%w: %q", errors.ErrInvalidRange, spec)
	}

	return r, nil
}

// Pair picks a uniformly random pair inside r.
//
// The public port sits at an even offset from Min. When the span is odd the
// last offset is dropped so that Internal never exceeds Max.
func (r Range) Pair(rnd Rand) (Pair, error) {
	if !r.Valid() {
		return Pair{}, fmt.Errorf("%w: %s", errors.ErrInvalidRange, r)
	}

	if rnd == nil {
		rnd = globalRand{}
	}

	usable := r.Max - 1 - r.Min
	public := r.Min + 2*rnd.IntN(usable/2+1)

	return Pair{Public: public, Internal: public + 1}, nil
}

// Allocate returns a port pair for the given range specifier.
//
// An empty or malformed specifier selects DefaultRange. If no pair can be
// derived at all, a pair from the fixed fallback window is returned, so
// Allocate always succeeds.
func Allocate(spec string, rnd Rand) Pair {
	if rnd == nil {
		rnd = globalRand{}
	}

	r := DefaultRange

	if spec != "" {
		if parsed, err := ParseRange(spec); err == nil {
			r = parsed
		}
	}

	if pair, err := r.Pair(rnd); err == nil {
		return pair
	}

	public := fallbackBase + 2*rnd.IntN(fallbackPairs)

	return Pair{Public: public, Internal: public + 1}
}
