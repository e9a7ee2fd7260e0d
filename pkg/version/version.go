// Package version reports how the mdmkit binary was built. Release builds
// set the variables below with -ldflags; `go install` builds fall back to the
// module and VCS data the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/mdmtools/mdmkit/pkg/version.Version=v1.2.0".
var (
	Version   = ""
	Commit    = ""
	BuildDate = ""
)

const component = "mdmkit"

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info is the build description printed by `mdmkit version`.
type Info struct {
	Component string `json:"component" yaml:"component"`
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get merges the ldflags values with the embedded build info. ldflags win.
func Get() Info {
	info := Info{
		Component: component,
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := readBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "" {
					info.BuildDate = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

// Short is "v1.2.0 (abcdef1)", with "-dirty" for modified trees.
func (i Info) Short() string {
	if len(i.Commit) < 7 {
		return i.Version
	}
	rev := i.Commit[:7]
	if i.Modified {
		rev += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", i.Version, rev)
}

func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s version %s\n", i.Component, i.Short())
	if i.BuildDate != "" {
		fmt.Fprintf(&b, "Built: %s\n", i.BuildDate)
	}
	if i.Commit != "" {
		fmt.Fprintf(&b, "Commit: %s\n", i.Commit)
	}
	fmt.Fprintf(&b, "Go: %s\n", i.GoVersion)
	fmt.Fprintf(&b, "Platform: %s\n", i.Platform)
	return b.String()
}
