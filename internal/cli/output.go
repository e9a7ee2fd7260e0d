package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	labelColor = color.New(color.Bold)
)

func setColor(disabled bool) {
	if disabled {
		color.NoColor = true
	}
}

// Output formats accepted by -o.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch strings.ToLower(format) {
	case formatText, formatJSON, formatYAML:
		return nil
	}
	return usageError(fmt.Errorf("unknown output format %q (want text, json or yaml)", format))
}

// writeStructured renders v as JSON or YAML. It returns false for text so
// the caller can print its own layout.
func writeStructured(w io.Writer, format string, v interface{}) (bool, error) {
	switch strings.ToLower(format) {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, err
		}
		_, err = fmt.Fprintln(w, string(data))
		return true, err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func printField(w io.Writer, label, value string) {
	if value == "" {
		value = "-"
	}
	_, _ = labelColor.Fprintf(w, "%-22s", label+":")
	_, _ = fmt.Fprintf(w, " %s\n", value)
}

func yesNo(b bool) string {
	if b {
		return okColor.Sprint("yes")
	}
	return warnColor.Sprint("no")
}
