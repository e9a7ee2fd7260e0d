//go:build windows

package platform

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// kernelRelease returns major.minor.build, e.g. "10.0.22631".
func kernelRelease() string {
	v := windows.RtlGetVersion()
	return fmt.Sprintf("%d.%d.%d", v.MajorVersion, v.MinorVersion, v.BuildNumber)
}
