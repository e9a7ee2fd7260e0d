package platform

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	linuxLookupTimeout = 10 * time.Second
	dmiSerialPath      = "/sys/class/dmi/id/product_serial"
)

var linuxInvalidUsers = []string{"root", "", "gdm", "lightdm", "sddm", "nobody"}

// LinuxSystemInfo reads facts from sysfs, the passwd database and dmidecode.
type LinuxSystemInfo struct {
	host Host
}

func NewLinuxSystemInfo(host Host) *LinuxSystemInfo {
	return &LinuxSystemInfo{host: host}
}

func (l *LinuxSystemInfo) InvalidUsers() []string {
	return append([]string(nil), linuxInvalidUsers...)
}

func (l *LinuxSystemInfo) SerialNumber(ctx context.Context) (string, bool) {
	// sysfs is world-readable on most distributions; dmidecode needs root
	if data, err := l.host.ReadFile(dmiSerialPath); err == nil {
		if serial := strings.TrimSpace(string(data)); !placeholderSerial(serial) {
			return serial, true
		}
	}

	out, err := output(ctx, l.host, linuxLookupTimeout, "dmidecode", "-s", "system-serial-number")
	if err != nil || placeholderSerial(out) {
		return "", false
	}
	return out, true
}

// ConsoleUser tries SUDO_USER, then logname, then the process owner.
func (l *LinuxSystemInfo) ConsoleUser(ctx context.Context) (*ConsoleUser, bool) {
	username := ""
	if sudoUser := l.host.Getenv("SUDO_USER"); !containsUser(linuxInvalidUsers, sudoUser) {
		username = sudoUser
	}
	if username == "" {
		if out, err := output(ctx, l.host, 5*time.Second, "logname"); err == nil && !containsUser(linuxInvalidUsers, out) {
			username = out
		}
	}
	if username == "" {
		if u, err := l.host.CurrentUser(); err == nil && !containsUser(linuxInvalidUsers, u.Username) {
			username = u.Username
		}
	}
	if username == "" {
		return nil, false
	}

	pw, err := l.host.LookupUser(username)
	if err != nil {
		return nil, false
	}
	uid, err := strconv.Atoi(pw.Uid)
	if err != nil || !l.host.DirExists(pw.HomeDir) {
		return nil, false
	}
	return &ConsoleUser{Username: username, UID: uid, Home: pw.HomeDir}, true
}

func (l *LinuxSystemInfo) Hostname() string {
	return hostname(l.host)
}

// UserFullName returns the first GECOS field.
func (l *LinuxSystemInfo) UserFullName(ctx context.Context, username string) (string, bool) {
	pw, err := l.host.LookupUser(username)
	if err != nil {
		return "", false
	}
	name, _, _ := strings.Cut(pw.Name, ",")
	name = strings.TrimSpace(name)
	return name, name != ""
}

func (l *LinuxSystemInfo) OSRelease() string {
	return l.host.KernelRelease()
}

func (l *LinuxSystemInfo) OSVersionLabel() string {
	return fmt.Sprintf("Linux Version: %s", l.OSRelease())
}

// LinuxCommandSupport drops to the target user with sudo.
type LinuxCommandSupport struct{}

var linuxUsernamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func (LinuxCommandSupport) MinUserUID() int {
	return 1000
}

func (l LinuxCommandSupport) ValidateUser(username string, uid int) bool {
	if username == "" || uid < 0 {
		return false
	}
	if !linuxUsernamePattern.MatchString(username) {
		return false
	}
	return uid >= l.MinUserUID()
}

func (LinuxCommandSupport) RunAsUserCommand(command []string, username string, uid int) []string {
	return append([]string{"sudo", "-u", username}, command...)
}

// LinuxDialogSupport reports that swiftDialog is not available.
type LinuxDialogSupport struct{}

func (LinuxDialogSupport) SharedTempDir() string {
	return "/tmp"
}

func (LinuxDialogSupport) StandardBinaryPath() (string, bool) {
	return "", false
}

func (LinuxDialogSupport) DialogAvailable() bool {
	return false
}

func (LinuxDialogSupport) UnavailableMessage() string {
	return "swiftDialog is not available on Linux. Dialog functionality is macOS-only. " +
		"Consider using zenity, kdialog, or similar Linux dialog tools."
}
