// Package platformtest provides in-memory Host and CommandFactory doubles
// that record every spawned command.
package platformtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/user"
	"strings"
	"sync"

	"github.com/mdmtools/mdmkit/pkg/platform"
)

// ExitError mimics *exec.ExitError for a non-zero exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) ExitCode() int {
	return e.Code
}

// Response is the canned outcome of one command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Err is returned as-is from Run (e.g. a start failure).
	Err error
	// Block makes Run wait for context cancellation.
	Block bool
}

// Call records one spawned command.
type Call struct {
	Name string
	Args []string
	Env  []string
	Dir  string
}

// Argv returns name followed by args.
func (c Call) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// CommandFactory answers commands from Responses, keyed by the space-joined
// argv, falling back to Default.
type CommandFactory struct {
	mu        sync.Mutex
	Responses map[string]Response
	Default   Response
	calls     []Call
}

func NewCommandFactory() *CommandFactory {
	return &CommandFactory{Responses: map[string]Response{}}
}

// On registers the response for an exact argv.
func (f *CommandFactory) On(argv []string, resp Response) *CommandFactory {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Responses[strings.Join(argv, " ")] = resp
	return f
}

func (f *CommandFactory) CommandContext(ctx context.Context, name string, args ...string) platform.Command {
	return &command{factory: f, ctx: ctx, call: Call{Name: name, Args: append([]string(nil), args...)}}
}

// Calls returns the commands run so far.
func (f *CommandFactory) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Spawns returns how many commands were run.
func (f *CommandFactory) Spawns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *CommandFactory) record(call Call) Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if resp, ok := f.Responses[strings.Join(call.Argv(), " ")]; ok {
		return resp
	}
	return f.Default
}

type command struct {
	factory *CommandFactory
	ctx     context.Context
	call    Call
	stdout  io.Writer
	stderr  io.Writer
}

func (c *command) SetStdout(w io.Writer) { c.stdout = w }
func (c *command) SetStderr(w io.Writer) { c.stderr = w }
func (c *command) SetEnv(env []string)   { c.call.Env = env }
func (c *command) SetDir(dir string)     { c.call.Dir = dir }

func (c *command) Run() error {
	resp := c.factory.record(c.call)

	if resp.Block {
		<-c.ctx.Done()
		return c.ctx.Err()
	}
	if c.stdout != nil && resp.Stdout != "" {
		_, _ = io.WriteString(c.stdout, resp.Stdout)
	}
	if c.stderr != nil && resp.Stderr != "" {
		_, _ = io.WriteString(c.stderr, resp.Stderr)
	}
	if resp.Err != nil {
		return resp.Err
	}
	if resp.ExitCode != 0 {
		return &ExitError{Code: resp.ExitCode}
	}
	return nil
}

// Host is an in-memory platform.Host.
type Host struct {
	*CommandFactory

	Env          map[string]string
	Files        map[string]string
	Dirs         map[string]bool
	Users        map[string]*user.User
	Current      *user.User
	Home         string
	HostnameName string
	Release      string
}

var _ platform.Host = (*Host)(nil)

func NewHost() *Host {
	return &Host{
		CommandFactory: NewCommandFactory(),
		Env:            map[string]string{},
		Files:          map[string]string{},
		Dirs:           map[string]bool{},
		Users:          map[string]*user.User{},
		HostnameName:   "test-host",
		Release:        "1.0.0",
	}
}

func (h *Host) ReadFile(path string) ([]byte, error) {
	data, ok := h.Files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, errors.New("no such file or directory"))
	}
	return []byte(data), nil
}

func (h *Host) Getenv(key string) string {
	return h.Env[key]
}

func (h *Host) Hostname() (string, error) {
	if h.HostnameName == "" {
		return "", errors.New("hostname unavailable")
	}
	return h.HostnameName, nil
}

func (h *Host) DirExists(path string) bool {
	return h.Dirs[path]
}

func (h *Host) LookupUser(username string) (*user.User, error) {
	u, ok := h.Users[username]
	if !ok {
		return nil, user.UnknownUserError(username)
	}
	return u, nil
}

func (h *Host) CurrentUser() (*user.User, error) {
	if h.Current == nil {
		return nil, errors.New("current user unknown")
	}
	return h.Current, nil
}

func (h *Host) UserHomeDir() (string, error) {
	if h.Home == "" {
		return "", errors.New("home directory unknown")
	}
	return h.Home, nil
}

func (h *Host) KernelRelease() string {
	return h.Release
}
