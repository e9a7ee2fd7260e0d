//go:build windows

package platform

import (
	"os/exec"
	"strconv"
)

// configureProcessTree kills the process and its children with taskkill on
// cancellation; Process.Kill alone leaves grandchildren of cmd.exe running.
func configureProcessTree(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := kill.Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
