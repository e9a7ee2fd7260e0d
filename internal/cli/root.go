// Package cli is the mdmkit command tree.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdmtools/mdmkit/pkg/command"
	"github.com/mdmtools/mdmkit/pkg/config"
	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
	"github.com/mdmtools/mdmkit/pkg/logger"
	"github.com/mdmtools/mdmkit/pkg/mdm"
	"github.com/mdmtools/mdmkit/pkg/platform"
	"github.com/mdmtools/mdmkit/pkg/redact"
)

// app carries global flags and everything built from them in
// PersistentPreRunE.
type app struct {
	host platform.Host

	configPath string
	logLevel   string
	platformID string
	providerID string
	noColor    bool

	cfg       *config.Config
	log       *logger.Logger
	logCloser io.Closer
	platforms *platform.Resolver
	providers *mdm.Resolver
	sanitizer *redact.Sanitizer
}

// NewRootCmd builds the command tree against the real host.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{host: platform.NewBasePlatform()})
}

// Execute runs mdmkit with os.Args. Cancelling ctx kills running commands.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mdmkit",
		Short: "mdmkit - toolkit for MDM deployment scripts",
		Long: `mdmkit helps deployment scripts run under Jamf Pro or Microsoft Intune.

It reads script parameters the way the MDM agent passes them, runs commands
with credentials redacted from logs and timeouts enforced, runs commands as
the logged-in console user, and reports machine facts.

Quick Examples:
  mdmkit info -o json                              # Machine facts as JSON
  mdmkit param 4 -- "$0" "$1" "$2" "$3" "$4"       # Jamf parameter $4
  mdmkit run --timeout 10s -- /usr/bin/id -u       # Run a command
  mdmkit run-as-user --user jdoe --uid 501 -- open -a Safari
  echo 'curl -H "Authorization: Bearer x"' | mdmkit sanitize

Environment:
  PYMDM_PLATFORM       override platform detection (darwin, windows, linux)
  PYMDM_MDM_PROVIDER   override provider detection (jamf, intune)
  MDMKIT_CONFIG        configuration file path
  MDMKIT_LOG_LEVEL     log level (DEBUG, INFO, WARN, ERROR)`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err)
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "",
		"Path to configuration file (searches common locations if not specified)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: DEBUG, INFO, WARN or ERROR")
	flags.StringVar(&a.platformID, "platform", "", "Platform override: darwin, windows or linux")
	flags.StringVar(&a.providerID, "provider", "", "MDM provider override: jamf or intune")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newRunCmd(a))
	rootCmd.AddCommand(newRunAsUserCmd(a))
	rootCmd.AddCommand(newSanitizeCmd(a))
	rootCmd.AddCommand(newInfoCmd(a))
	rootCmd.AddCommand(newParamCmd(a))
	rootCmd.AddCommand(newPlatformCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	setColor(a.noColor)
	// version must work even with a broken config file
	if cmd.Name() == "version" {
		return nil
	}

	cfg, source, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logger.ParseLevel(a.logLevel); err != nil {
			return usageError(err)
		}
		cfg.Logging.Level = a.logLevel
	}
	if a.platformID != "" {
		if _, err := platform.ParseKey(a.platformID); err != nil {
			return err
		}
		cfg.Platform = a.platformID
	}
	if a.providerID != "" {
		if _, err := mdm.ParseProviderKey(a.providerID); err != nil {
			return err
		}
		cfg.Provider = a.providerID
	}

	log, closer, err := logger.Open(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return mdmerrors.NewConfigError(source, "logging.output", err)
	}
	a.cfg, a.log, a.logCloser = cfg, log, closer
	a.log.Debug("configuration loaded", "source", source)

	// configured overrides take the place of the environment variables so
	// the provider default follows an overridden platform
	getenv := func(key string) string {
		switch {
		case key == platform.EnvPlatform && cfg.Platform != "":
			return cfg.Platform
		case key == mdm.EnvProvider && cfg.Provider != "":
			return cfg.Provider
		}
		return os.Getenv(key)
	}
	a.platforms = platform.NewResolver(
		platform.WithHost(a.host),
		platform.WithGetenv(getenv),
		platform.WithLogger(a.log),
	)
	a.providers = mdm.NewResolver(
		mdm.WithGetenv(getenv),
		mdm.WithPlatformResolver(a.platforms),
		mdm.WithLogger(a.log),
	)
	a.sanitizer = redact.New(
		redact.WithPlaceholder(cfg.Redaction.Placeholder),
		redact.WithAdditionalKeys(cfg.Redaction.AdditionalKeys...),
	)
	return nil
}

func (a *app) teardown() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}

func (a *app) runner(opts ...command.Option) *command.Runner {
	base := []command.Option{
		command.WithLogger(a.log),
		command.WithResolver(a.platforms),
		command.WithCommandFactory(a.host),
		command.WithSanitizer(a.sanitizer),
		command.WithDefaultTimeout(a.cfg.Command.DefaultTimeout()),
	}
	return command.New(append(base, opts...)...)
}

// usageError marks err as a command-line mistake.
func usageError(err error) error {
	return &mdmerrors.ClassifiedError{
		Err:      err,
		Category: mdmerrors.CategoryUsage,
		Severity: mdmerrors.SeverityLow,
		ExitCode: mdmerrors.ExitUsage,
		UserMsg:  "Run 'mdmkit --help' for usage.",
	}
}
