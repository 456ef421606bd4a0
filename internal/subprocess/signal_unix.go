//go:build unix

package subprocess

import (
	stderrors "errors"
	"os"
	"os/exec"
	"syscall"
)

// setProcessGroup places the emulator in its own process group so that the
// bootstrap it launches is terminated together with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// signalTerminate sends SIGTERM to the process group led by proc.
func signalTerminate(proc *os.Process) error {
	err := syscall.Kill(-proc.Pid, syscall.SIGTERM)
	if err == nil {
		return nil
	}

	if stderrors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}

	return proc.Signal(syscall.SIGTERM)
}
