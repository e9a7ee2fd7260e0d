package platform

import (
	"context"
	"io"
	"os/user"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// Key identifies a supported operating system family.
type Key string

const (
	Darwin  Key = "darwin"
	Windows Key = "windows"
	Linux   Key = "linux"
)

// EnvPlatform overrides OS autodetection when set.
const EnvPlatform = "PYMDM_PLATFORM"

// NoUID marks an unset user id in a run-as-user identity.
const NoUID = -1

// ConsoleUser is the user logged into the graphical session.
type ConsoleUser struct {
	Username string `json:"username" yaml:"username"`
	UID      int    `json:"uid" yaml:"uid"`
	Home     string `json:"home" yaml:"home"`
}

// SystemInfo retrieves identity facts about the machine. Lookups that can
// fail report absence through the boolean rather than an error; callers in
// deployment scripts only care whether a value is available.
//
//counterfeiter:generate . SystemInfo
type SystemInfo interface {
	// InvalidUsers lists usernames that mean "no real user logged in".
	InvalidUsers() []string
	SerialNumber(ctx context.Context) (string, bool)
	ConsoleUser(ctx context.Context) (*ConsoleUser, bool)
	Hostname() string
	UserFullName(ctx context.Context, username string) (string, bool)
	// OSRelease is the bare release, e.g. "24.5.0" or "10.0.22631".
	OSRelease() string
	OSVersionLabel() string
}

// CommandSupport validates run-as-user identities and wraps commands so they
// execute as that user. Implementations are stateless.
//
//counterfeiter:generate . CommandSupport
type CommandSupport interface {
	// MinUserUID is the lowest uid treated as a human account.
	MinUserUID() int
	// ValidateUser reports whether username and uid form a complete identity
	// acceptable on this platform. An empty username or a negative uid is a
	// missing field.
	ValidateUser(username string, uid int) bool
	// RunAsUserCommand returns the full argument vector that runs command as
	// username.
	RunAsUserCommand(command []string, username string, uid int) []string
}

// DialogSupport describes where user-facing dialog tooling lives.
//
//counterfeiter:generate . DialogSupport
type DialogSupport interface {
	SharedTempDir() string
	StandardBinaryPath() (string, bool)
	DialogAvailable() bool
	UnavailableMessage() string
}

// Host is the access layer to the machine the process runs on. Platform
// implementations read facts through it so tests can substitute a fake.
//
//counterfeiter:generate . Host
type Host interface {
	OSOperations
	CommandFactory
}

// OSOperations defines the OS-level lookups platform implementations need
//
//counterfeiter:generate . OSOperations
type OSOperations interface {
	ReadFile(path string) ([]byte, error)
	Getenv(key string) string
	Hostname() (string, error)
	DirExists(path string) bool
	LookupUser(username string) (*user.User, error)
	CurrentUser() (*user.User, error)
	UserHomeDir() (string, error)
	// KernelRelease is the host kernel release, e.g. "24.5.0" on macOS.
	KernelRelease() string
}

// CommandFactory creates commands bound to a context
//
//counterfeiter:generate . CommandFactory
type CommandFactory interface {
	CommandContext(ctx context.Context, name string, args ...string) Command
}

// Command represents a command prepared for execution
//
//counterfeiter:generate . Command
type Command interface {
	SetStdout(w io.Writer)
	SetStderr(w io.Writer)
	SetEnv(env []string)
	SetDir(dir string)
	Run() error
}
