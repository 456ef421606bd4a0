package rierunner

import (
	"github.com/wagiedev/rie-runner-go/internal/config"
	"github.com/wagiedev/rie-runner-go/internal/ports"
)

// RunnerOptions configures a Runner. Build it with Option functions.
type RunnerOptions = config.Options

// Readiness selects how a Runner decides the emulator accepts invocations.
type Readiness = config.Readiness

const (
	// ReadinessFirstOutput treats the first byte the emulator writes to
	// stderr as the ready signal. This is the default.
	ReadinessFirstOutput = config.ReadinessFirstOutput

	// ReadinessProbe waits until the emulator's listen port accepts a TCP connection.
	ReadinessProbe = config.ReadinessProbe
)

// PortRand is the randomness source used for port allocation.
// *rand.Rand from math/rand/v2 satisfies it.
type PortRand = ports.Rand
