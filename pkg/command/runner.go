// Package command runs external commands for deployment scripts with
// credential redaction in logs, timeouts and run-as-user support.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
	"github.com/mdmtools/mdmkit/pkg/logger"
	"github.com/mdmtools/mdmkit/pkg/platform"
	"github.com/mdmtools/mdmkit/pkg/redact"
)

// DefaultTimeout applies when neither the Spec nor the Runner sets one.
const DefaultTimeout = 30 * time.Second

var errEmptyCommand = errors.New("empty command")

// Spec describes one command. Exactly one of Shell or Args is used; Shell
// takes precedence and is interpreted by the system shell.
type Spec struct {
	Shell   string
	Args    []string
	Timeout time.Duration
	// Env replaces the whole environment when non-nil.
	Env map[string]string
}

// Shell returns a Spec run through the system shell.
func Shell(command string) Spec {
	return Spec{Shell: command}
}

// Argv returns a Spec executing args[0] directly.
func Argv(args ...string) Spec {
	return Spec{Args: args}
}

func (s Spec) argv() []string {
	if s.Shell != "" {
		if runtime.GOOS == "windows" {
			return []string{"cmd.exe", "/C", s.Shell}
		}
		return []string{"/bin/sh", "-c", s.Shell}
	}
	return s.Args
}

func (s Spec) text() string {
	if s.Shell != "" {
		return s.Shell
	}
	return strings.Join(s.Args, " ")
}

func (s Spec) environ() []string {
	if s.Env == nil {
		return nil
	}
	env := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// Runner executes commands. A Runner holds no mutable state and is safe for
// concurrent use.
type Runner struct {
	logger         *logger.Logger
	username       string
	uid            int
	commandSupport platform.CommandSupport
	resolver       *platform.Resolver
	commands       platform.CommandFactory
	sanitizer      *redact.Sanitizer
	defaultTimeout time.Duration
}

type Option func(*Runner)

// WithLogger enables debug and error logging. A nil logger disables it.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithUser sets the identity RunAsUser runs as.
func WithUser(username string, uid int) Option {
	return func(r *Runner) {
		r.username = username
		r.uid = uid
	}
}

func WithUsername(username string) Option {
	return func(r *Runner) {
		r.username = username
	}
}

func WithUID(uid int) Option {
	return func(r *Runner) {
		r.uid = uid
	}
}

// WithCommandSupport pins the run-as-user implementation instead of
// resolving it from the platform.
func WithCommandSupport(cs platform.CommandSupport) Option {
	return func(r *Runner) {
		r.commandSupport = cs
	}
}

// WithResolver sets the platform resolver consulted by RunAsUser.
func WithResolver(res *platform.Resolver) Option {
	return func(r *Runner) {
		r.resolver = res
	}
}

func WithCommandFactory(f platform.CommandFactory) Option {
	return func(r *Runner) {
		r.commands = f
	}
}

func WithSanitizer(s *redact.Sanitizer) Option {
	return func(r *Runner) {
		r.sanitizer = s
	}
}

func WithDefaultTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.defaultTimeout = d
		}
	}
}

func New(opts ...Option) *Runner {
	r := &Runner{
		uid:            platform.NoUID,
		resolver:       platform.Default(),
		commands:       platform.NewBasePlatform(),
		sanitizer:      redact.New(),
		defaultTimeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Discard()
	}
	if r.sanitizer == nil {
		r.sanitizer = redact.New()
	}
	if r.commands == nil {
		r.commands = platform.NewBasePlatform()
	}
	if r.resolver == nil {
		r.resolver = platform.Default()
	}
	return r
}

// Run executes spec and returns its stdout with trailing whitespace removed.
// A non-zero exit yields *CommandFailedError, an expired timeout
// *CommandTimedOutError and a cancelled ctx the context's error.
func (r *Runner) Run(ctx context.Context, spec Spec) (string, error) {
	sanitized := r.sanitizer.Sanitize(spec.text())
	argv := spec.argv()
	if len(argv) == 0 || argv[0] == "" {
		return "", &mdmerrors.CommandFailedError{Command: sanitized, ExitCode: -1, Err: errEmptyCommand}
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}

	log := r.logger.WithField("exec_id", uuid.NewString())
	log.Debug("Running: " + sanitized)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := r.commands.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.SetStdout(&stdout)
	cmd.SetStderr(&stderr)
	if env := spec.environ(); env != nil {
		cmd.SetEnv(env)
	}

	start := time.Now()
	err := cmd.Run()
	// a clean exit whose background children still hold stdout
	if errors.Is(err, exec.ErrWaitDelay) && runCtx.Err() == nil {
		log.Debug("command exited with output pipes still open", "duration", time.Since(start).Round(time.Millisecond))
		err = nil
	}
	if err == nil {
		log.Debug("command completed", "duration", time.Since(start).Round(time.Millisecond))
		return strings.TrimRightFunc(stdout.String(), unicode.IsSpace), nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn("command cancelled", "error", ctxErr)
		return "", ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		log.Error(fmt.Sprintf("Command timed out after %s", timeout))
		return "", &mdmerrors.CommandTimedOutError{Command: sanitized, Timeout: timeout}
	}

	exitCode := -1
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	log.Error("Command failed: "+strings.TrimSpace(stderr.String()), "exit_code", exitCode)
	return "", &mdmerrors.CommandFailedError{
		Command:  sanitized,
		ExitCode: exitCode,
		Stderr:   stderr.String(),
		Err:      err,
	}
}

// RunAsUser validates the configured identity, wraps args with the
// platform's run-as-user mechanism and runs the result. Validation failures
// return *UserValidationError without spawning anything.
func (r *Runner) RunAsUser(ctx context.Context, args []string, timeout time.Duration) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", &mdmerrors.CommandFailedError{Command: r.sanitizer.SanitizeArgs(args), ExitCode: -1, Err: errEmptyCommand}
	}

	cs, err := r.resolveCommandSupport()
	if err != nil {
		return "", err
	}

	if !cs.ValidateUser(r.username, r.uid) {
		r.logger.Error("User validation failed", "username", r.username, "uid", r.uid)
		return "", &mdmerrors.UserValidationError{
			Username: r.username,
			UID:      r.uid,
			Platform: string(platform.KeyOf(cs)),
		}
	}

	r.logger.Debug(fmt.Sprintf("Running: %s as the logged in user %s (UID: %d)",
		r.sanitizer.SanitizeArgs(args), r.username, r.uid))

	return r.Run(ctx, Spec{Args: cs.RunAsUserCommand(args, r.username, r.uid), Timeout: timeout})
}

func (r *Runner) resolveCommandSupport() (platform.CommandSupport, error) {
	if r.commandSupport != nil {
		return r.commandSupport, nil
	}
	return r.resolver.CommandSupport("")
}
