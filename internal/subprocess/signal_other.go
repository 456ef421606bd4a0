//go:build !unix

package subprocess

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

// signalTerminate kills proc; SIGTERM cannot be delivered on this platform.
func signalTerminate(proc *os.Process) error {
	return proc.Kill()
}
