package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mdmtools/mdmkit/pkg/platform"
)

type platformReport struct {
	Platform           string `json:"platform" yaml:"platform"`
	Provider           string `json:"provider" yaml:"provider"`
	MinUserUID         int    `json:"min_user_uid" yaml:"min_user_uid"`
	SharedTempDir      string `json:"shared_temp_dir" yaml:"shared_temp_dir"`
	DialogAvailable    bool   `json:"dialog_available" yaml:"dialog_available"`
	DialogBinary       string `json:"dialog_binary,omitempty" yaml:"dialog_binary,omitempty"`
	UnavailableMessage string `json:"unavailable_message,omitempty" yaml:"unavailable_message,omitempty"`
}

func newPlatformCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "platform",
		Short: "Show the resolved platform, MDM provider and their capabilities",
		Long: `Show which platform and MDM provider mdmkit resolved and what they support.

Resolution order for both: --platform/--provider flag, config file,
PYMDM_PLATFORM/PYMDM_MDM_PROVIDER, then autodetection from the operating
system (Jamf on macOS and Linux, Intune on Windows).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			report, err := a.platformReport()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, format, report); done {
				return err
			}

			printField(out, "Platform", report.Platform)
			printField(out, "MDM provider", report.Provider)
			printField(out, "Minimum user uid", strconv.Itoa(report.MinUserUID))
			printField(out, "Shared temp dir", report.SharedTempDir)
			printField(out, "Dialog available", yesNo(report.DialogAvailable))
			if report.DialogAvailable {
				printField(out, "Dialog binary", report.DialogBinary)
			} else {
				_, _ = warnColor.Fprintln(out, report.UnavailableMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "Output format: text, json or yaml")

	return cmd
}

func (a *app) platformReport() (*platformReport, error) {
	key, err := a.platforms.Key("")
	if err != nil {
		return nil, err
	}
	provider, err := a.providers.Key("")
	if err != nil {
		return nil, err
	}
	cs, err := a.platforms.CommandSupport("")
	if err != nil {
		return nil, err
	}
	ds, err := a.platforms.DialogSupport("")
	if err != nil {
		return nil, err
	}

	report := &platformReport{
		Platform:           string(key),
		Provider:           string(provider),
		MinUserUID:         cs.MinUserUID(),
		SharedTempDir:      ds.SharedTempDir(),
		DialogAvailable:    ds.DialogAvailable(),
		UnavailableMessage: ds.UnavailableMessage(),
	}
	if path, ok := ds.StandardBinaryPath(); ok {
		report.DialogBinary = path
	}
	if key == platform.Linux {
		a.log.Debug(fmt.Sprintf("%s support is experimental", key))
	}
	return report, nil
}
