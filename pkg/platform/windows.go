package platform

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const windowsLookupTimeout = 15 * time.Second

var windowsInvalidUsers = []string{"", "SYSTEM", "LOCAL SERVICE", "NETWORK SERVICE"}

// WindowsSystemInfo reads facts through PowerShell with wmic and net user
// fallbacks.
type WindowsSystemInfo struct {
	host Host
}

func NewWindowsSystemInfo(host Host) *WindowsSystemInfo {
	return &WindowsSystemInfo{host: host}
}

func (w *WindowsSystemInfo) InvalidUsers() []string {
	return append([]string(nil), windowsInvalidUsers...)
}

func (w *WindowsSystemInfo) SerialNumber(ctx context.Context) (string, bool) {
	out, err := output(ctx, w.host, windowsLookupTimeout,
		"powershell", "-NoProfile", "-Command", "(Get-CimInstance -ClassName Win32_BIOS).SerialNumber")
	if err == nil && !placeholderSerial(out) {
		return out, true
	}

	// wmic prints a "SerialNumber" header line before the value
	out, err = output(ctx, w.host, windowsLookupTimeout, "wmic", "bios", "get", "serialnumber")
	if err != nil {
		return "", false
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 2 || placeholderSerial(lines[1]) {
		return "", false
	}
	return lines[1], true
}

// ConsoleUser returns the interactive user. Windows has no numeric uid, so
// UID is always 0.
func (w *WindowsSystemInfo) ConsoleUser(ctx context.Context) (*ConsoleUser, bool) {
	username := w.host.Getenv("USERNAME")
	if username == "" {
		if u, err := w.host.CurrentUser(); err == nil {
			username = u.Username
			// DOMAIN\user
			if i := strings.LastIndex(username, `\`); i >= 0 {
				username = username[i+1:]
			}
		}
	}
	if containsUser(windowsInvalidUsers, username) {
		return nil, false
	}

	home, err := w.host.UserHomeDir()
	if err != nil || !w.host.DirExists(home) {
		return nil, false
	}
	return &ConsoleUser{Username: username, UID: 0, Home: home}, true
}

func (w *WindowsSystemInfo) Hostname() string {
	return hostname(w.host)
}

func (w *WindowsSystemInfo) UserFullName(ctx context.Context, username string) (string, bool) {
	out, err := output(ctx, w.host, windowsLookupTimeout,
		"powershell", "-NoProfile", "-Command",
		fmt.Sprintf("(Get-LocalUser -Name %s).FullName", psQuote(username)))
	if err == nil && out != "" {
		return out, true
	}

	out, err = output(ctx, w.host, windowsLookupTimeout, "net", "user", username)
	if err != nil {
		return "", false
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Full Name") {
			continue
		}
		if name := strings.TrimSpace(strings.TrimPrefix(line, "Full Name")); name != "" {
			return name, true
		}
	}
	return "", false
}

func (w *WindowsSystemInfo) OSRelease() string {
	return w.host.KernelRelease()
}

func (w *WindowsSystemInfo) OSVersionLabel() string {
	return fmt.Sprintf("Windows Version: %s", w.OSRelease())
}

// WindowsCommandSupport wraps commands in a PowerShell Start-Process call
// with a credential prompt for the target user.
type WindowsCommandSupport struct{}

// usernames may contain dots and spaces on Windows
var windowsUsernamePattern = regexp.MustCompile(`^[A-Za-z0-9._\- ]+$`)

// MinUserUID is 0: Windows has no numeric uids, the placeholder 0 is accepted.
func (WindowsCommandSupport) MinUserUID() int {
	return 0
}

func (w WindowsCommandSupport) ValidateUser(username string, uid int) bool {
	if username == "" || uid < 0 {
		return false
	}
	if !windowsUsernamePattern.MatchString(username) {
		return false
	}
	return uid >= w.MinUserUID()
}

func (WindowsCommandSupport) RunAsUserCommand(command []string, username string, uid int) []string {
	if len(command) == 0 {
		return nil
	}

	script := "Start-Process -FilePath " + psQuote(command[0])
	if len(command) > 1 {
		script += " -ArgumentList " + psQuote(strings.Join(command[1:], " "))
	}
	script += fmt.Sprintf(" -Credential (Get-Credential -UserName %s -Message 'Enter password') -Wait -NoNewWindow",
		psQuote(username))

	return []string{"powershell", "-NoProfile", "-Command", script}
}

// psQuote renders s as a single-quoted PowerShell string literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// WindowsDialogSupport reports that swiftDialog is not available.
type WindowsDialogSupport struct{}

func (WindowsDialogSupport) SharedTempDir() string {
	return `C:\ProgramData`
}

func (WindowsDialogSupport) StandardBinaryPath() (string, bool) {
	return "", false
}

func (WindowsDialogSupport) DialogAvailable() bool {
	return false
}

func (WindowsDialogSupport) UnavailableMessage() string {
	return "swiftDialog is not available on Windows. Dialog functionality is macOS-only."
}
