package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for inherited pipes once the process
// has exited or been killed. Background grandchildren of `sh -c` keep stdout
// open otherwise; after a clean exit Run then reports exec.ErrWaitDelay.
const waitDelay = 500 * time.Millisecond

// BasePlatform is the Host backed by the real operating system.
type BasePlatform struct{}

// NewBasePlatform creates a new base platform
func NewBasePlatform() *BasePlatform {
	return &BasePlatform{}
}

var _ Host = (*BasePlatform)(nil)

func (bp *BasePlatform) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (bp *BasePlatform) Getenv(key string) string {
	return os.Getenv(key)
}

func (bp *BasePlatform) Hostname() (string, error) {
	return os.Hostname()
}

// DirExists checks if a directory exists
func (bp *BasePlatform) DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

func (bp *BasePlatform) LookupUser(username string) (*user.User, error) {
	return user.Lookup(username)
}

func (bp *BasePlatform) CurrentUser() (*user.User, error) {
	return user.Current()
}

func (bp *BasePlatform) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (bp *BasePlatform) KernelRelease() string {
	return kernelRelease()
}

// CommandContext creates a command whose whole process tree is killed when
// ctx is done.
func (bp *BasePlatform) CommandContext(ctx context.Context, name string, args ...string) Command {
	cmd := exec.CommandContext(ctx, name, args...)
	configureProcessTree(cmd)
	cmd.WaitDelay = waitDelay
	return &ExecCommand{cmd: cmd}
}

// ExecCommand wraps exec.Cmd to implement Command interface
type ExecCommand struct {
	cmd *exec.Cmd
}

func (e *ExecCommand) SetStdout(w io.Writer) {
	e.cmd.Stdout = w
}

func (e *ExecCommand) SetStderr(w io.Writer) {
	e.cmd.Stderr = w
}

func (e *ExecCommand) SetEnv(env []string) {
	e.cmd.Env = env
}

func (e *ExecCommand) SetDir(dir string) {
	e.cmd.Dir = dir
}

func (e *ExecCommand) Run() error {
	return e.cmd.Run()
}

// output runs name with args and returns trimmed stdout. Used by the system
// info lookups, which treat any failure as "value unavailable".
func output(ctx context.Context, commands CommandFactory, timeout time.Duration, name string, args ...string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := commands.CommandContext(runCtx, name, args...)
	cmd.SetStdout(&stdout)
	cmd.SetStderr(&stderr)
	err := cmd.Run()
	if errors.Is(err, exec.ErrWaitDelay) && runCtx.Err() == nil {
		err = nil
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// placeholderSerial reports firmware filler values that mean "no serial".
func placeholderSerial(serial string) bool {
	switch strings.ToLower(strings.TrimSpace(serial)) {
	case "", "none", "to be filled by o.e.m.", "default string", "system serial number":
		return true
	}
	return false
}

func containsUser(invalid []string, username string) bool {
	for _, u := range invalid {
		if u == username {
			return true
		}
	}
	return false
}
