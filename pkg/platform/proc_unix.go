//go:build unix

package platform

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcessTree starts the command in its own process group and kills
// the whole group on cancellation, so `sh -c` children die with the shell.
func configureProcessTree(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		err := unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
		if err == nil || errors.Is(err, unix.ESRCH) {
			return nil
		}
		return cmd.Process.Kill()
	}
}
