// Package errors defines the error taxonomy shared by the mdmkit packages.
// Every failure is a typed error that unwraps to one of the sentinels below,
// so callers can branch with errors.Is and extract context with errors.As.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common error conditions
var (
	// Resolution errors
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrUnsupportedProvider = errors.New("unsupported MDM provider")

	// Command errors
	ErrCommandFailed        = errors.New("command failed")
	ErrCommandTimedOut      = errors.New("command timed out")
	ErrUserValidationFailed = errors.New("user validation failed")

	// Parameter errors
	ErrParameterOutOfRange = errors.New("parameter out of range")
	ErrReservedParameter   = errors.New("reserved parameter")
	ErrInvalidParameterKey = errors.New("invalid parameter key")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// Host checks
	ErrReleaseTooOld = errors.New("OS release below required minimum")
)

// UnsupportedPlatformError is returned when platform resolution names a key
// with no implementation. The message is read by operators in script logs.
type UnsupportedPlatformError struct {
	Key       string
	Supported []string
	EnvVar    string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("platform '%s' is not supported. Supported platforms: %s. "+
		"Set the %s environment variable to override detection.",
		e.Key, strings.Join(e.Supported, ", "), e.EnvVar)
}

func (e *UnsupportedPlatformError) Unwrap() error {
	return ErrUnsupportedPlatform
}

// UnsupportedProviderError is returned when provider resolution names an
// unknown MDM provider.
type UnsupportedProviderError struct {
	Key       string
	Supported []string
	EnvVar    string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("MDM provider '%s' is not supported. Supported providers: %s. "+
		"Set the %s environment variable to override detection.",
		e.Key, strings.Join(e.Supported, ", "), e.EnvVar)
}

func (e *UnsupportedProviderError) Unwrap() error {
	return ErrUnsupportedProvider
}

// CommandFailedError reports a process that exited non-zero or could not be
// started. Command holds the sanitized command text, never the raw one.
type CommandFailedError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("command %q failed", e.Command)
	if e.ExitCode >= 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandFailedError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCommandFailed}
	}
	return []error{ErrCommandFailed, e.Err}
}

// CommandTimedOutError reports a process killed after exceeding its timeout.
type CommandTimedOutError struct {
	Command string
	Timeout time.Duration
}

func (e *CommandTimedOutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", e.Command, e.Timeout)
}

func (e *CommandTimedOutError) Unwrap() error {
	return ErrCommandTimedOut
}

// UserValidationError is returned by run-as-user before any process is spawned.
type UserValidationError struct {
	Username string
	UID      int
	Platform string
}

func (e *UserValidationError) Error() string {
	uid := "<unset>"
	if e.UID >= 0 {
		uid = fmt.Sprintf("%d", e.UID)
	}
	return fmt.Sprintf("run as user validation failed for username=%q, uid=%s on %s",
		e.Username, uid, e.Platform)
}

func (e *UserValidationError) Unwrap() error {
	return ErrUserValidationFailed
}

// ParameterError reports a script parameter key the provider refuses.
type ParameterError struct {
	Provider string
	Key      string
	Reason   string
	Err      error
}

func (e *ParameterError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s parameter %s: %s", e.Provider, e.Key, e.Reason)
	}
	return fmt.Sprintf("%s parameter %s: %v", e.Provider, e.Key, e.Err)
}

func (e *ParameterError) Unwrap() error {
	return e.Err
}

// ConfigError represents an error related to configuration
type ConfigError struct {
	Source string
	Field  string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s.%s: %v", e.Source, e.Field, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Error wrapping constructors
func NewParameterError(provider, key string, sentinel error, reason string) error {
	return &ParameterError{Provider: provider, Key: key, Reason: reason, Err: sentinel}
}

func NewConfigError(source, field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Source: source, Field: field, Err: fmt.Errorf("%w: %v", ErrInvalidConfig, err)}
}

// Error classification functions
func IsUnsupportedError(err error) bool {
	return errors.Is(err, ErrUnsupportedPlatform) || errors.Is(err, ErrUnsupportedProvider)
}

func IsCommandFailed(err error) bool {
	return errors.Is(err, ErrCommandFailed)
}

func IsTimeoutError(err error) bool {
	return errors.Is(err, ErrCommandTimedOut) || errors.Is(err, context.DeadlineExceeded)
}

func IsUserValidationError(err error) bool {
	return errors.Is(err, ErrUserValidationFailed)
}

func IsParameterError(err error) bool {
	return errors.Is(err, ErrParameterOutOfRange) ||
		errors.Is(err, ErrReservedParameter) ||
		errors.Is(err, ErrInvalidParameterKey)
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Error extraction helpers

// GetStderr returns the captured stderr of a failed command.
func GetStderr(err error) (string, bool) {
	var ce *CommandFailedError
	if errors.As(err, &ce) {
		return ce.Stderr, true
	}
	return "", false
}

// GetExitCode returns the exit code of a failed command.
func GetExitCode(err error) (int, bool) {
	var ce *CommandFailedError
	if errors.As(err, &ce) {
		return ce.ExitCode, true
	}
	return 0, false
}

func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
