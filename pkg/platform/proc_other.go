//go:build !unix && !windows

package platform

import "os/exec"

func configureProcessTree(cmd *exec.Cmd) {}
