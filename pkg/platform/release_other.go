//go:build !unix && !windows

package platform

import "runtime"

func kernelRelease() string {
	return runtime.GOOS
}
