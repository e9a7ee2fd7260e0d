package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdmtools/mdmkit/pkg/version"
)

func newVersionCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			info := version.Get()
			if done, err := writeStructured(out, format, info); done {
				return err
			}
			_, err := fmt.Fprint(out, info.String())
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", formatText, "Output format: text, json or yaml")

	return cmd
}
