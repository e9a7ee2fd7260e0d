package mdm

import (
	"os"
	"strconv"
	"strings"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

// ProviderKey identifies an MDM agent.
type ProviderKey string

const (
	Jamf   ProviderKey = "jamf"
	Intune ProviderKey = "intune"
)

// EnvProvider overrides provider detection when set.
const EnvProvider = "PYMDM_MDM_PROVIDER"

// ParamProvider reads script parameters. A missing parameter is reported by
// the boolean, never as an error; errors mean the key itself is unusable.
//
//counterfeiter:generate . ParamProvider
type ParamProvider interface {
	Get(key Key) (string, bool, error)
	// GetBool is true for "true", "1", "yes" or "y" in any case.
	GetBool(key Key) (bool, error)
	// GetInt returns def when the parameter is missing or not an integer.
	GetInt(key Key, def int) (int, error)
}

// ProviderOption configures a provider.
type ProviderOption func(*source)

// WithArgs replaces os.Args as the positional parameter source.
func WithArgs(args []string) ProviderOption {
	return func(s *source) {
		s.args = append([]string(nil), args...)
	}
}

// WithLookupEnv replaces os.LookupEnv as the named parameter source.
func WithLookupEnv(lookup func(string) (string, bool)) ProviderOption {
	return func(s *source) {
		s.lookupEnv = lookup
	}
}

// source holds where parameter values come from.
type source struct {
	args      []string
	lookupEnv func(string) (string, bool)
}

func newSource(opts []ProviderOption) source {
	s := source{args: os.Args, lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s source) arg(i int) (string, bool) {
	if i < 0 || i >= len(s.args) {
		return "", false
	}
	return s.args[i], true
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

func parseInt(value string, def int) int {
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return n
}

// getBool and getInt implement the conversions on top of any Get.
func getBool(get func(Key) (string, bool, error), key Key) (bool, error) {
	value, ok, err := get(key)
	if err != nil || !ok {
		return false, err
	}
	return parseBool(value), nil
}

func getInt(get func(Key) (string, bool, error), key Key, def int) (int, error) {
	value, ok, err := get(key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return parseInt(value, def), nil
}
