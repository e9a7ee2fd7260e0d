package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mdmtools/mdmkit/pkg/mdm"
)

func newParamCmd(a *app) *cobra.Command {
	var (
		kind     string
		def      int
		required bool
	)

	cmd := &cobra.Command{
		Use:   "param [flags] KEY [-- SCRIPT_ARG...]",
		Short: "Read an MDM script parameter",
		Long: `Read a script parameter the way the active MDM provider passes it.

KEY is either a number, addressing the script's positional arguments, or a
name. Pass the script's own arguments after "--", starting with $0.

Jamf Pro reserves $0-$3 (script, mount point, computer name, username) and
only accepts $4-$11. Intune accepts any index, and resolves names from the
environment, falling back to the INTUNE_ prefixed variable.

Examples:
  mdmkit param 4 -- "$0" "$1" "$2" "$3" "$4"
  mdmkit param --type bool 5 -- "$@"
  mdmkit param --provider intune WEBHOOK_URL`,
		Args: func(cmd *cobra.Command, args []string) error {
			keys := len(args)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				keys = dash
			}
			if keys != 1 {
				return usageError(fmt.Errorf("expected exactly one KEY before --, got %d", keys))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var scriptArgs []string
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				scriptArgs = args[dash:]
			}

			providerKey, err := a.providers.Key("")
			if err != nil {
				return err
			}
			provider := mdm.NewProvider(providerKey, mdm.WithArgs(scriptArgs))
			key := parseParamKey(args[0])
			a.log.Debug("reading script parameter", "provider", string(providerKey), "key", key.String())

			out := cmd.OutOrStdout()
			switch strings.ToLower(kind) {
			case "string", "":
				value, ok, err := provider.Get(key)
				if err != nil {
					return err
				}
				if !ok && required {
					return fmt.Errorf("%s parameter %s is not set", providerKey, key)
				}
				_, err = fmt.Fprintln(out, value)
				return err
			case "bool":
				value, err := provider.GetBool(key)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, strconv.FormatBool(value))
				return err
			case "int":
				value, err := provider.GetInt(key, def)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, value)
				return err
			}
			return usageError(fmt.Errorf("unknown parameter type %q (want string, bool or int)", kind))
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", "string", "Value type: string, bool or int")
	cmd.Flags().IntVar(&def, "default", 0, "Value printed by --type int when the parameter is missing or not a number")
	cmd.Flags().BoolVar(&required, "required", false, "Fail when the parameter is not set")

	return cmd
}

// parseParamKey treats anything that parses as an integer as an index.
func parseParamKey(raw string) mdm.Key {
	if n, err := strconv.Atoi(strings.TrimPrefix(raw, "$")); err == nil {
		return mdm.Index(n)
	}
	return mdm.Name(raw)
}
