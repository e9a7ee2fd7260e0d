// Package sysinfo gathers the machine facts a deployment script usually
// reports in one pass.
package sysinfo

import (
	"context"
	"fmt"
	"io"
	"strings"

	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
	"github.com/mdmtools/mdmkit/pkg/platform"
	"github.com/mdmtools/mdmkit/pkg/semver"
)

// Facts is a snapshot of machine identity. Empty fields were unavailable.
type Facts struct {
	Platform     string                `json:"platform" yaml:"platform"`
	Hostname     string                `json:"hostname" yaml:"hostname"`
	SerialNumber string                `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	OSVersion    string                `json:"os_version" yaml:"os_version"`
	OSRelease    string                `json:"os_release" yaml:"os_release"`
	ConsoleUser  *platform.ConsoleUser `json:"console_user,omitempty" yaml:"console_user,omitempty"`
	FullName     string                `json:"full_name,omitempty" yaml:"full_name,omitempty"`
}

// Collect queries info for every fact. Lookups that fail leave their field
// empty; Collect itself never fails.
func Collect(ctx context.Context, info platform.SystemInfo) Facts {
	facts := Facts{
		Platform:  string(platform.KeyOf(info)),
		Hostname:  info.Hostname(),
		OSVersion: info.OSVersionLabel(),
		OSRelease: info.OSRelease(),
	}
	if serial, ok := info.SerialNumber(ctx); ok {
		facts.SerialNumber = serial
	}
	if u, ok := info.ConsoleUser(ctx); ok {
		facts.ConsoleUser = u
		if name, ok := info.UserFullName(ctx, u.Username); ok {
			facts.FullName = name
		}
	}
	return facts
}

// RequireRelease fails with ErrReleaseTooOld unless the collected OS release
// is minimum or newer. A release that cannot be parsed also fails the check.
func (f Facts) RequireRelease(minimum string) error {
	want, err := semver.NewVersion(minimum)
	if err != nil {
		return mdmerrors.NewConfigError("flag", "min-os-release", err)
	}
	have, err := semver.NewVersion(f.OSRelease)
	if err != nil {
		return fmt.Errorf("%w: cannot compare release %q: %v", mdmerrors.ErrReleaseTooOld, f.OSRelease, err)
	}
	if !have.AtLeast(want) {
		return fmt.Errorf("%w: %s is older than %s", mdmerrors.ErrReleaseTooOld, have, want)
	}
	return nil
}

// WriteText prints facts as aligned "label: value" lines.
func (f Facts) WriteText(w io.Writer) error {
	rows := [][2]string{
		{"Platform", f.Platform},
		{"Hostname", f.Hostname},
		{"Serial number", f.SerialNumber},
		{"OS version", f.OSVersion},
	}
	if f.ConsoleUser != nil {
		rows = append(rows,
			[2]string{"Console user", f.ConsoleUser.Username},
			[2]string{"UID", fmt.Sprintf("%d", f.ConsoleUser.UID)},
			[2]string{"Home", f.ConsoleUser.Home},
			[2]string{"Full name", f.FullName},
		)
	} else {
		rows = append(rows, [2]string{"Console user", ""})
	}

	var b strings.Builder
	for _, row := range rows {
		value := row[1]
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%-14s %s\n", row[0]+":", value)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
