package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func setBuild(t *testing.T, version, commit, date string, bi *debug.BuildInfo) {
	t.Helper()
	oldVersion, oldCommit, oldDate, oldRead := Version, Commit, BuildDate, readBuildInfo
	Version, Commit, BuildDate = version, commit, date
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() {
		Version, Commit, BuildDate, readBuildInfo = oldVersion, oldCommit, oldDate, oldRead
	})
}

func vcsBuild(version, revision string, modified bool) *debug.BuildInfo {
	mod := "false"
	if modified {
		mod = "true"
	}
	return &debug.BuildInfo{
		Main: debug.Module{Path: "github.com/mdmtools/mdmkit", Version: version},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: revision},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: mod},
		},
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		commit     string
		bi         *debug.BuildInfo
		wantVer    string
		wantCommit string
		wantShort  string
	}{
		{"ldflags win", "v1.2.0", "abcdef1234", vcsBuild("v1.1.0", "9999999999", false), "v1.2.0", "abcdef1234", "v1.2.0 (abcdef1)"},
		{"go install", "", "", vcsBuild("v1.1.0", "1234567890", false), "v1.1.0", "1234567890", "v1.1.0 (1234567)"},
		{"local checkout", "", "", vcsBuild("(devel)", "1234567890", true), "dev", "1234567890", "dev (1234567-dirty)"},
		{"no build info", "", "", nil, "dev", "", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuild(t, tt.version, tt.commit, "", tt.bi)
			info := Get()
			if info.Version != tt.wantVer {
				t.Errorf("Version = %q, want %q", info.Version, tt.wantVer)
			}
			if info.Commit != tt.wantCommit {
				t.Errorf("Commit = %q, want %q", info.Commit, tt.wantCommit)
			}
			if got := info.Short(); got != tt.wantShort {
				t.Errorf("Short() = %q, want %q", got, tt.wantShort)
			}
			if info.Component != "mdmkit" {
				t.Errorf("Component = %q", info.Component)
			}
		})
	}
}

func TestInfo_String(t *testing.T) {
	setBuild(t, "v1.2.0", "abcdef1234", "", nil)
	out := Get().String()

	for _, want := range []string{"mdmkit version v1.2.0 (abcdef1)", "Commit: abcdef1234", "Go: ", "Platform: "} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Built:") {
		t.Errorf("String() should omit an unknown build date:\n%s", out)
	}

	setBuild(t, "", "", "", vcsBuild("v1.1.0", "1234567890", false))
	if out := Get().String(); !strings.Contains(out, "Built: 2026-10-01T12:00:00Z") {
		t.Errorf("String() should use the VCS time:\n%s", out)
	}
}
