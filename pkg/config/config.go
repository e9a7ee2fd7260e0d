package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	mdmerrors "github.com/mdmtools/mdmkit/pkg/errors"
	"github.com/mdmtools/mdmkit/pkg/logger"
	"github.com/mdmtools/mdmkit/pkg/mdm"
	"github.com/mdmtools/mdmkit/pkg/platform"
)

const (
	EnvConfigPath = "MDMKIT_CONFIG"
	EnvLogLevel   = "MDMKIT_LOG_LEVEL"
	EnvLogFormat  = "MDMKIT_LOG_FORMAT"
)

// BuiltInSource is reported as the config path when no file was found.
const BuiltInSource = "built-in defaults (no config file found)"

// Config holds the complete mdmkit configuration
type Config struct {
	// Platform and Provider act as explicit overrides when non-empty.
	Platform  string          `yaml:"platform" toml:"platform" json:"platform"`
	Provider  string          `yaml:"provider" toml:"provider" json:"provider"`
	Command   CommandConfig   `yaml:"command" toml:"command" json:"command"`
	Redaction RedactionConfig `yaml:"redaction" toml:"redaction" json:"redaction"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging" json:"logging"`
}

type CommandConfig struct {
	DefaultTimeoutSeconds int `yaml:"default_timeout_seconds" toml:"default_timeout_seconds" json:"default_timeout_seconds"`
}

// DefaultTimeout returns the configured timeout as a duration
func (c CommandConfig) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutSeconds) * time.Second
}

type RedactionConfig struct {
	// AdditionalKeys are redacted like token=... and password=...
	AdditionalKeys []string `yaml:"additional_keys" toml:"additional_keys" json:"additional_keys"`
	Placeholder    string   `yaml:"placeholder" toml:"placeholder" json:"placeholder"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
	// Output is "stdout", "stderr" or a file path
	Output string `yaml:"output" toml:"output" json:"output"`
}

// DefaultConfig provides the configuration used when no file is found
var DefaultConfig = Config{
	Command: CommandConfig{
		DefaultTimeoutSeconds: 30,
	},
	Logging: LoggingConfig{
		Level:  "INFO",
		Format: logger.FormatText,
		Output: "stderr",
	},
}

// SearchPaths lists the locations tried, in order, when neither an explicit
// path nor MDMKIT_CONFIG is given.
func SearchPaths() []string {
	return []string{
		"~/.config/mdmkit/config.yml",
		"~/.config/mdmkit/config.yaml",
		"~/.config/mdmkit/config.toml",
		"/etc/mdmkit/config.yml",
		"/etc/mdmkit/config.yaml",
		"/etc/mdmkit/config.toml",
	}
}

// LoadConfig loads configuration with the following precedence:
//  1. path, when non-empty (must exist)
//  2. MDMKIT_CONFIG (must exist)
//  3. the first existing file from SearchPaths
//  4. DefaultConfig
//
// PYMDM_PLATFORM, PYMDM_MDM_PROVIDER, MDMKIT_LOG_LEVEL and MDMKIT_LOG_FORMAT
// then override file values. Returns the config and where it came from.
func LoadConfig(path string) (*Config, string, error) {
	config := DefaultConfig

	source, err := loadFromFile(&config, path)
	if err != nil {
		return nil, "", err
	}

	applyEnv(&config)

	if err := config.Validate(); err != nil {
		return nil, "", mdmerrors.NewConfigError(source, "", err)
	}
	return &config, source, nil
}

func applyEnv(config *Config) {
	if val := strings.TrimSpace(os.Getenv(platform.EnvPlatform)); val != "" {
		config.Platform = val
	}
	if val := strings.TrimSpace(os.Getenv(mdm.EnvProvider)); val != "" {
		config.Provider = val
	}
	if val := os.Getenv(EnvLogLevel); val != "" {
		config.Logging.Level = val
	}
	if val := os.Getenv(EnvLogFormat); val != "" {
		config.Logging.Format = val
	}
}

func loadFromFile(config *Config, explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(EnvConfigPath)
	}
	if explicit != "" {
		path, err := homedir.Expand(explicit)
		if err != nil {
			return "", mdmerrors.NewConfigError(explicit, "", err)
		}
		return path, decodeFile(config, path)
	}

	for _, candidate := range SearchPaths() {
		path, err := homedir.Expand(candidate)
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		return path, decodeFile(config, path)
	}
	return BuiltInSource, nil
}

// decodeFile parses path as TOML when it has a .toml extension and as YAML
// otherwise. Unknown keys are rejected so typos surface.
func decodeFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return mdmerrors.NewConfigError(path, "", err)
	}
	if err := Decode(config, data, filepath.Ext(path)); err != nil {
		return mdmerrors.NewConfigError(path, "", err)
	}
	return nil
}

// Decode unmarshals data into config; ext selects the format.
func Decode(config *Config, data []byte, ext string) error {
	if strings.EqualFold(ext, ".toml") {
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		return decoder.Decode(config)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	// an empty or comment-only document leaves the defaults untouched
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks every field and returns the first problem found
func (c *Config) Validate() error {
	if c.Platform != "" {
		if _, err := platform.ParseKey(c.Platform); err != nil {
			return fmt.Errorf("platform: %w", err)
		}
	}
	if c.Provider != "" {
		if _, err := mdm.ParseProviderKey(c.Provider); err != nil {
			return fmt.Errorf("provider: %w", err)
		}
	}

	if c.Command.DefaultTimeoutSeconds <= 0 {
		return fmt.Errorf("command.default_timeout_seconds must be positive: %d", c.Command.DefaultTimeoutSeconds)
	}

	for _, key := range c.Redaction.AdditionalKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("redaction.additional_keys must not contain empty keys")
		}
	}
	if strings.ContainsAny(c.Redaction.Placeholder, " \t\r\n") {
		return fmt.Errorf("redaction.placeholder must not contain whitespace: %q", c.Redaction.Placeholder)
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", logger.FormatText, logger.FormatJSON:
	default:
		return fmt.Errorf("logging.format must be text or json: %s", c.Logging.Format)
	}

	return nil
}
