package cli

import (
	"github.com/spf13/cobra"

	"github.com/mdmtools/mdmkit/pkg/sysinfo"
)

func newInfoCmd(a *app) *cobra.Command {
	var (
		format     string
		minRelease string
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show machine facts: serial number, console user, OS version",
		Long: `Collect the machine facts deployment scripts usually report: hostname,
serial number, OS version, the console user and their full name.

Facts that cannot be read on this machine are shown as "-" (text) or omitted
(json, yaml).

With --min-os-release the facts are still printed, and the command then exits
with a validation error if the OS release is older than the given version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			info, err := a.platforms.SystemInfo("")
			if err != nil {
				return err
			}

			facts := sysinfo.Collect(cmd.Context(), info)
			a.log.Debug("collected system facts", "platform", facts.Platform, "console_user", facts.ConsoleUser != nil)

			if done, err := writeStructured(cmd.OutOrStdout(), format, facts); done {
				if err != nil {
					return err
				}
			} else if err := facts.WriteText(cmd.OutOrStdout()); err != nil {
				return err
			}

			if minRelease == "" {
				return nil
			}
			return facts.RequireRelease(minRelease)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "Output format: text, json or yaml")
	cmd.Flags().StringVar(&minRelease, "min-os-release", "", "Fail unless the OS release is at least this version")

	return cmd
}
