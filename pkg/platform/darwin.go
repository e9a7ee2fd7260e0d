package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const darwinLookupTimeout = 15 * time.Second

var darwinInvalidUsers = []string{"root", "", "loginwindow", "_mbsetupuser"}

// DarwinSystemInfo reads facts with system_profiler, stat and id.
type DarwinSystemInfo struct {
	host Host
}

func NewDarwinSystemInfo(host Host) *DarwinSystemInfo {
	return &DarwinSystemInfo{host: host}
}

func (d *DarwinSystemInfo) InvalidUsers() []string {
	return append([]string(nil), darwinInvalidUsers...)
}

type hardwareReport struct {
	SPHardwareDataType []struct {
		SerialNumber string `json:"serial_number"`
	} `json:"SPHardwareDataType"`
}

func (d *DarwinSystemInfo) SerialNumber(ctx context.Context) (string, bool) {
	out, err := output(ctx, d.host, darwinLookupTimeout, "/usr/sbin/system_profiler", "SPHardwareDataType", "-json")
	if err != nil {
		return "", false
	}

	var report hardwareReport
	if err := json.Unmarshal([]byte(out), &report); err != nil || len(report.SPHardwareDataType) == 0 {
		return "", false
	}
	serial := report.SPHardwareDataType[0].SerialNumber
	if placeholderSerial(serial) {
		return "", false
	}
	return serial, true
}

// ConsoleUser returns the owner of /dev/console when it is a real user with
// a home under /Users.
func (d *DarwinSystemInfo) ConsoleUser(ctx context.Context) (*ConsoleUser, bool) {
	username, err := output(ctx, d.host, darwinLookupTimeout, "/usr/bin/stat", "-f%Su", "/dev/console")
	if err != nil || containsUser(darwinInvalidUsers, username) {
		return nil, false
	}

	rawUID, err := output(ctx, d.host, darwinLookupTimeout, "/usr/bin/id", "-u", username)
	if err != nil {
		return nil, false
	}
	uid, err := strconv.Atoi(rawUID)
	if err != nil {
		return nil, false
	}

	home := "/Users/" + username
	if !d.host.DirExists(home) {
		return nil, false
	}
	return &ConsoleUser{Username: username, UID: uid, Home: home}, true
}

func (d *DarwinSystemInfo) Hostname() string {
	return hostname(d.host)
}

func (d *DarwinSystemInfo) UserFullName(ctx context.Context, username string) (string, bool) {
	name, err := output(ctx, d.host, darwinLookupTimeout, "/usr/bin/id", "-F", username)
	if err != nil || name == "" {
		return "", false
	}
	return name, true
}

func (d *DarwinSystemInfo) OSRelease() string {
	return d.host.KernelRelease()
}

func (d *DarwinSystemInfo) OSVersionLabel() string {
	return fmt.Sprintf("macOS Version: %s", d.OSRelease())
}

// DarwinCommandSupport runs commands in a user's launchd session with
// `launchctl asuser` and drops privileges with sudo.
type DarwinCommandSupport struct{}

var darwinUsernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func (DarwinCommandSupport) MinUserUID() int {
	return 500
}

func (d DarwinCommandSupport) ValidateUser(username string, uid int) bool {
	if username == "" || uid < 0 {
		return false
	}
	if !darwinUsernamePattern.MatchString(username) {
		return false
	}
	return uid >= d.MinUserUID()
}

func (DarwinCommandSupport) RunAsUserCommand(command []string, username string, uid int) []string {
	wrapped := []string{"/bin/launchctl", "asuser", strconv.Itoa(uid), "sudo", "-u", username}
	return append(wrapped, command...)
}

// DarwinDialogSupport points at swiftDialog's standard install location.
type DarwinDialogSupport struct{}

func (DarwinDialogSupport) SharedTempDir() string {
	return "/Users/Shared"
}

func (DarwinDialogSupport) StandardBinaryPath() (string, bool) {
	return "/usr/local/bin/dialog", true
}

func (DarwinDialogSupport) DialogAvailable() bool {
	return true
}

func (DarwinDialogSupport) UnavailableMessage() string {
	return ""
}

func hostname(host OSOperations) string {
	name, err := host.Hostname()
	if err != nil {
		return ""
	}
	return name
}
