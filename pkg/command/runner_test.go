package command_test

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/mdmtools/mdmkit/pkg/command"
	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
	"github.com/mdmtools/mdmkit/pkg/logger"
	"github.com/mdmtools/mdmkit/pkg/platform"
	"github.com/mdmtools/mdmkit/pkg/platform/platformtest"
	"github.com/mdmtools/mdmkit/pkg/redact"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithConfig(logger.Config{Level: logger.DEBUG, Output: buf})
}

func TestRun_ArgvOutputTrimmed(t *testing.T) {
	f := platformtest.NewCommandFactory()
	f.On([]string{"/usr/bin/id", "-u", "jdoe"}, platformtest.Response{Stdout: "  501\n\n"})
	r := command.New(command.WithCommandFactory(f))

	out, err := r.Run(context.Background(), command.Argv("/usr/bin/id", "-u", "jdoe"))
	require.NoError(t, err)
	assert.Equal(t, "  501", out)
	require.Equal(t, 1, f.Spawns())
	assert.Nil(t, f.Calls()[0].Env)
}

func TestRun_ShellForm(t *testing.T) {
	f := platformtest.NewCommandFactory()
	f.Default = platformtest.Response{Stdout: "ok"}
	r := command.New(command.WithCommandFactory(f))

	_, err := r.Run(context.Background(), command.Shell("echo hi | tr a-z A-Z"))
	require.NoError(t, err)

	call := f.Calls()[0]
	assert.Equal(t, "echo hi | tr a-z A-Z", call.Args[len(call.Args)-1])
	assert.Contains(t, []string{"/bin/sh", "cmd.exe"}, call.Name)
}

func TestRun_EnvReplacesEnvironment(t *testing.T) {
	f := platformtest.NewCommandFactory()
	r := command.New(command.WithCommandFactory(f))

	_, err := r.Run(context.Background(), command.Spec{
		Args: []string{"env"},
		Env:  map[string]string{"B": "2", "A": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A=1", "B=2"}, f.Calls()[0].Env)

	_, err = r.Run(context.Background(), command.Spec{Args: []string{"env"}, Env: map[string]string{}})
	require.NoError(t, err)
	assert.NotNil(t, f.Calls()[1].Env)
	assert.Empty(t, f.Calls()[1].Env)
}

func TestRun_NonZeroExit(t *testing.T) {
	var buf bytes.Buffer
	f := platformtest.NewCommandFactory()
	f.Default = platformtest.Response{ExitCode: 3, Stderr: "no such thing\n"}
	r := command.New(command.WithCommandFactory(f), command.WithLogger(newLogger(&buf)))

	_, err := r.Run(context.Background(), command.Argv("curl", "-H", "Authorization: Bearer abc123", "token=xyz"))
	require.Error(t, err)
	assert.True(t, mdmerrors.IsCommandFailed(err))
	code, _ := mdmerrors.GetExitCode(err)
	assert.Equal(t, 3, code)
	stderr, _ := mdmerrors.GetStderr(err)
	assert.Equal(t, "no such thing\n", stderr)

	var failed *mdmerrors.CommandFailedError
	require.ErrorAs(t, err, &failed)
	assert.NotContains(t, failed.Command, "abc123")
	assert.NotContains(t, failed.Command, "xyz")
	assert.Contains(t, failed.Command, redact.Placeholder)

	logs := buf.String()
	assert.Contains(t, logs, "Command failed: no such thing")
	assert.NotContains(t, logs, "abc123")
	assert.Contains(t, logs, "exec_id=")
}

func TestRun_StartFailure(t *testing.T) {
	f := platformtest.NewCommandFactory()
	startErr := errors.New(`exec: "missing": executable file not found in $PATH`)
	f.Default = platformtest.Response{Err: startErr}
	r := command.New(command.WithCommandFactory(f))

	_, err := r.Run(context.Background(), command.Argv("missing"))
	require.Error(t, err)
	assert.True(t, mdmerrors.IsCommandFailed(err))
	assert.ErrorIs(t, err, startErr)
	code, _ := mdmerrors.GetExitCode(err)
	assert.Equal(t, -1, code)
}

func TestRun_EmptyCommand(t *testing.T) {
	f := platformtest.NewCommandFactory()
	r := command.New(command.WithCommandFactory(f))

	_, err := r.Run(context.Background(), command.Spec{})
	require.Error(t, err)
	assert.True(t, mdmerrors.IsCommandFailed(err))
	assert.Zero(t, f.Spawns())
}

func TestRun_Timeout(t *testing.T) {
	var buf bytes.Buffer
	f := platformtest.NewCommandFactory()
	f.Default = platformtest.Response{Block: true}
	r := command.New(command.WithCommandFactory(f), command.WithLogger(newLogger(&buf)))

	_, err := r.Run(context.Background(), command.Spec{Args: []string{"sleep", "60"}, Timeout: 20 * time.Millisecond})
	require.Error(t, err)
	assert.True(t, mdmerrors.IsTimeoutError(err))

	var timedOut *mdmerrors.CommandTimedOutError
	require.ErrorAs(t, err, &timedOut)
	assert.Equal(t, 20*time.Millisecond, timedOut.Timeout)
	assert.Equal(t, "sleep 60", timedOut.Command)
	assert.Contains(t, buf.String(), "Command timed out after 20ms")
}

func TestRun_DefaultTimeout(t *testing.T) {
	f := platformtest.NewCommandFactory()
	f.Default = platformtest.Response{Block: true}
	r := command.New(command.WithCommandFactory(f), command.WithDefaultTimeout(10*time.Millisecond))

	_, err := r.Run(context.Background(), command.Argv("sleep", "60"))
	var timedOut *mdmerrors.CommandTimedOutError
	require.ErrorAs(t, err, &timedOut)
	assert.Equal(t, 10*time.Millisecond, timedOut.Timeout)
}

func TestRun_ParentCancelled(t *testing.T) {
	f := platformtest.NewCommandFactory()
	f.Default = platformtest.Response{Block: true}
	r := command.New(command.WithCommandFactory(f))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := r.Run(ctx, command.Argv("sleep", "60"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, mdmerrors.IsTimeoutError(err))
}

func TestRun_DebugLogIsSanitized(t *testing.T) {
	var buf bytes.Buffer
	f := platformtest.NewCommandFactory()
	r := command.New(command.WithCommandFactory(f), command.WithLogger(newLogger(&buf)))

	_, err := r.Run(context.Background(), command.Shell("curl -u admin password=hunter2 https://example.invalid"))
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "Running: curl -u admin password=<REDACTED> https://example.invalid")
	assert.NotContains(t, logs, "hunter2")
}

func TestRun_CustomSanitizer(t *testing.T) {
	var buf bytes.Buffer
	f := platformtest.NewCommandFactory()
	r := command.New(
		command.WithCommandFactory(f),
		command.WithLogger(newLogger(&buf)),
		command.WithSanitizer(redact.New(redact.WithAdditionalKeys("secret_key"))),
	)

	_, err := r.Run(context.Background(), command.Argv("tool", "secret_key=s3cr3t"))
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "s3cr3t")
}

func TestRun_CleanExitWithOpenPipes(t *testing.T) {
	f := platformtest.NewCommandFactory()
	f.Default = platformtest.Response{Stdout: "started\n", Err: exec.ErrWaitDelay}

	out, err := command.New(command.WithCommandFactory(f)).Run(context.Background(), command.Shell("agent &"))
	require.NoError(t, err)
	assert.Equal(t, "started", out)
}

func TestRunAsUser_EmptyCommand(t *testing.T) {
	tests := []struct {
		name string
		cs   platform.CommandSupport
		uid  int
	}{
		{"darwin", platform.DarwinCommandSupport{}, 501},
		{"windows", platform.WindowsCommandSupport{}, 0},
		{"linux", platform.LinuxCommandSupport{}, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := platformtest.NewCommandFactory()
			r := command.New(
				command.WithCommandFactory(f),
				command.WithCommandSupport(tt.cs),
				command.WithUser("jdoe", tt.uid),
			)

			for _, args := range [][]string{nil, {}, {""}} {
				_, err := r.RunAsUser(context.Background(), args, time.Second)
				require.Error(t, err)
				assert.True(t, mdmerrors.IsCommandFailed(err))
			}
			assert.Zero(t, f.Spawns())
		})
	}
}

func TestRunAsUser_ValidationFailsWithoutSpawning(t *testing.T) {
	tests := []struct {
		name string
		opts []command.Option
	}{
		{"no identity", nil},
		{"username only", []command.Option{command.WithUsername("jdoe")}},
		{"uid only", []command.Option{command.WithUID(501)}},
		{"system uid", []command.Option{command.WithUser("jdoe", 1)}},
		{"space in username", []command.Option{command.WithUser("test user", 501)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := platformtest.NewCommandFactory()
			opts := append([]command.Option{
				command.WithCommandFactory(f),
				command.WithCommandSupport(platform.DarwinCommandSupport{}),
				command.WithLogger(newLogger(&buf)),
			}, tt.opts...)

			_, err := command.New(opts...).RunAsUser(context.Background(), []string{"whoami"}, 0)
			require.Error(t, err)
			assert.True(t, mdmerrors.IsUserValidationError(err))
			assert.Zero(t, f.Spawns())
			assert.Contains(t, buf.String(), "User validation failed")

			var verr *mdmerrors.UserValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "darwin", verr.Platform)
		})
	}
}

func TestRunAsUser_WrapsCommand(t *testing.T) {
	var buf bytes.Buffer
	f := platformtest.NewCommandFactory()
	f.Default = platformtest.Response{Stdout: "jdoe\n"}
	r := command.New(
		command.WithCommandFactory(f),
		command.WithCommandSupport(platform.DarwinCommandSupport{}),
		command.WithUser("jdoe", 501),
		command.WithLogger(newLogger(&buf)),
	)

	out, err := r.RunAsUser(context.Background(), []string{"/usr/bin/whoami"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", out)

	require.Equal(t, 1, f.Spawns())
	assert.Equal(t,
		[]string{"/bin/launchctl", "asuser", "501", "sudo", "-u", "jdoe", "/usr/bin/whoami"},
		f.Calls()[0].Argv())
	assert.Contains(t, buf.String(), "as the logged in user jdoe (UID: 501)")
}

func TestRunAsUser_WindowsAcceptsSpaces(t *testing.T) {
	f := platformtest.NewCommandFactory()
	r := command.New(
		command.WithCommandFactory(f),
		command.WithCommandSupport(platform.WindowsCommandSupport{}),
		command.WithUser("test user", 0),
	)

	_, err := r.RunAsUser(context.Background(), []string{"whoami"}, time.Second)
	require.NoError(t, err)

	argv := f.Calls()[0].Argv()
	require.Len(t, argv, 4)
	assert.Equal(t, "powershell", argv[0])
	assert.True(t, strings.Contains(argv[3], "-UserName 'test user'"))
}

func TestRunAsUser_ResolvesFromPlatform(t *testing.T) {
	f := platformtest.NewCommandFactory()
	res := platform.NewResolver(
		platform.WithGOOS("linux"),
		platform.WithGetenv(func(string) string { return "" }),
	)
	r := command.New(command.WithCommandFactory(f), command.WithResolver(res), command.WithUser("jane", 1000))

	_, err := r.RunAsUser(context.Background(), []string{"id"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []string{"sudo", "-u", "jane", "id"}, f.Calls()[0].Argv())
}

func TestRunAsUser_UnsupportedPlatform(t *testing.T) {
	res := platform.NewResolver(
		platform.WithGOOS("aix"),
		platform.WithGetenv(func(string) string { return "" }),
	)
	r := command.New(command.WithResolver(res), command.WithUser("jane", 1000))

	_, err := r.RunAsUser(context.Background(), []string{"id"}, time.Second)
	assert.ErrorIs(t, err, mdmerrors.ErrUnsupportedPlatform)
}
