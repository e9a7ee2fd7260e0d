package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSanitizeCmd(a *app) *cobra.Command {
	var showRules bool

	cmd := &cobra.Command{
		Use:   "sanitize [TEXT...]",
		Short: "Redact credentials from a command line",
		Long: `Print TEXT with credentials replaced by the redaction placeholder.

Without arguments every line of stdin is sanitized. Additional keys from the
redaction.additional_keys config setting are honored. Flags are only read
before TEXT; put "--" first when TEXT itself starts with a dash.

Examples:
  mdmkit sanitize curl -H "Authorization: Bearer abc" https://example.com
  mdmkit sanitize -- --password=hunter2 --verbose
  cat commands.log | mdmkit sanitize`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if showRules {
				for _, rule := range a.sanitizer.Rules() {
					_, _ = labelColor.Fprintf(out, "%-22s", rule.Name)
					_, _ = fmt.Fprintf(out, " %s\n", rule.Pattern.String())
				}
				return nil
			}

			if len(args) > 0 {
				_, err := fmt.Fprintln(out, a.sanitizer.SanitizeArgs(args))
				return err
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				line := strings.TrimRight(scanner.Text(), "\r")
				if _, err := fmt.Fprintln(out, a.sanitizer.Sanitize(line)); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&showRules, "rules", false, "List the redaction rules in the order they are applied")

	return cmd
}
