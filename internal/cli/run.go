package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	"github.com/mdmtools/mdmkit/pkg/command"
	"github.com/mdmtools/mdmkit/pkg/platform"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		shell   bool
		timeout time.Duration
		env     []string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] [--] COMMAND [ARG...]",
		Short: "Run a command with redacted logging and a timeout",
		Long: `Run a command and print its stdout.

By default the arguments are executed directly, without a shell. With --shell
they are joined with spaces and passed to /bin/sh -c (cmd.exe /C on Windows),
so pipes and redirection work.

Credentials in the command line (Bearer tokens, password=, api_key= and so on)
are redacted before anything is logged.

Examples:
  mdmkit run -- /usr/bin/id -u jdoe
  mdmkit run --shell 'system_profiler SPHardwareDataType | grep Serial'
  mdmkit run --timeout 5s --env PATH=/usr/bin:/bin -- env`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := command.Spec{Args: args, Timeout: timeout}
			if shell {
				spec = command.Spec{Shell: strings.Join(args, " "), Timeout: timeout}
			}
			if len(env) > 0 {
				vars, err := parseEnv(env)
				if err != nil {
					return usageError(err)
				}
				spec.Env = vars
			}

			out, err := a.runner().Run(cmd.Context(), spec)
			if err != nil {
				return err
			}
			return printOutput(cmd, out)
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().BoolVar(&shell, "shell", false, "Run through the system shell")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Kill the command after this long (default from config, 30s)")
	cmd.Flags().StringArrayVarP(&env, "env", "e", nil,
		"Environment variable KEY=VALUE (repeatable); when given, replaces the inherited environment")

	return cmd
}

func newRunAsUserCmd(a *app) *cobra.Command {
	var (
		username    string
		uid         int
		consoleUser bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run-as-user [flags] [--] COMMAND [ARG...]",
		Short: "Run a command as the logged-in user",
		Long: `Run a command as another user, usually the console user, and print its stdout.

macOS runs the command in the user's launchd session with launchctl asuser and
sudo. Linux uses sudo. Windows starts it through PowerShell with a credential
prompt.

A single argument is split into words with shell quoting rules, so the command
can be given as one string.

Examples:
  mdmkit run-as-user --user jdoe --uid 501 -- defaults read com.apple.dock
  mdmkit run-as-user --console-user 'open -a "Self Service"'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			argv := args
			if len(args) == 1 {
				split, err := shlex.Split(args[0])
				if err != nil {
					return usageError(fmt.Errorf("parse command: %w", err))
				}
				argv = split
			}

			if consoleUser {
				info, err := a.platforms.SystemInfo("")
				if err != nil {
					return err
				}
				u, ok := info.ConsoleUser(cmd.Context())
				if !ok {
					return fmt.Errorf("no console user is logged in")
				}
				if username == "" {
					username = u.Username
				}
				if uid == platform.NoUID {
					uid = u.UID
				}
			}

			runner := a.runner(command.WithUser(username, uid))
			out, err := runner.RunAsUser(cmd.Context(), argv, timeout)
			if err != nil {
				return err
			}
			return printOutput(cmd, out)
		},
	}
	cmd.Flags().SetInterspersed(false)

	cmd.Flags().StringVarP(&username, "user", "u", "", "Username to run as")
	cmd.Flags().IntVar(&uid, "uid", platform.NoUID, "Numeric uid of the user (use 0 on Windows)")
	cmd.Flags().BoolVar(&consoleUser, "console-user", false, "Fill in --user and --uid from the console user")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Kill the command after this long (default from config, 30s)")

	return cmd
}

// parseEnv turns KEY=VALUE pairs into a map. Later pairs win.
func parseEnv(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid environment variable %q, expected KEY=VALUE", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

func printOutput(cmd *cobra.Command, out string) error {
	if out == "" {
		return nil
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}
