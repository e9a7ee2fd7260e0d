package errors

import (
	"context"
	"errors"
)

// ErrorCategory groups errors by the kind of problem they represent.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryValidation    ErrorCategory = "validation"
	CategoryUsage         ErrorCategory = "usage"
	CategoryExecution     ErrorCategory = "execution"
	CategoryTimeout       ErrorCategory = "timeout"
	CategoryCanceled      ErrorCategory = "canceled"
	CategoryUnknown       ErrorCategory = "unknown"
)

// ErrorSeverity tells how serious an error is for the calling script.
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "critical"
	SeverityHigh     ErrorSeverity = "high"
	SeverityMedium   ErrorSeverity = "medium"
	SeverityLow      ErrorSeverity = "low"
)

// Exit codes used by the CLI. Scripts running under an MDM agent only see the
// process exit status, so each category maps to a distinct code.
const (
	ExitGeneric       = 1
	ExitUsage         = 2
	ExitConfiguration = 3
	ExitValidation    = 4
	ExitExecution     = 5
	ExitTimeout       = 6
	ExitCanceled      = 130
)

// ClassifiedError is an error with category, severity and the message shown
// to operators. Nothing in this module retries, so Retryable only reports
// whether a caller could reasonably try again.
type ClassifiedError struct {
	Err       error
	Category  ErrorCategory
	Severity  ErrorSeverity
	Retryable bool
	ExitCode  int
	UserMsg   string
}

func (e *ClassifiedError) Error() string {
	return e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// ClassifyError classifies an error based on its type
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	switch {
	case IsUnsupportedError(err), IsConfigError(err):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryConfiguration,
			Severity: SeverityHigh,
			ExitCode: ExitConfiguration,
			UserMsg:  "Configuration error. Check the platform and provider overrides.",
		}

	case IsUserValidationError(err):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryValidation,
			Severity: SeverityHigh,
			ExitCode: ExitValidation,
			UserMsg:  "The target user is missing or not allowed on this platform.",
		}

	case errors.Is(err, ErrReleaseTooOld):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryValidation,
			Severity: SeverityMedium,
			ExitCode: ExitValidation,
			UserMsg:  "This machine does not meet the minimum OS release.",
		}

	case IsParameterError(err):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryUsage,
			Severity: SeverityMedium,
			ExitCode: ExitUsage,
			UserMsg:  "Invalid script parameter. Check the parameter index or name.",
		}

	case errors.Is(err, ErrCommandTimedOut):
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryTimeout,
			Severity:  SeverityMedium,
			Retryable: true,
			ExitCode:  ExitTimeout,
			UserMsg:   "Command timed out.",
		}

	case IsCommandFailed(err):
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryExecution,
			Severity:  SeverityMedium,
			Retryable: true,
			ExitCode:  ExitExecution,
			UserMsg:   "Command failed. See stderr for details.",
		}

	case errors.Is(err, context.Canceled):
		return &ClassifiedError{
			Err:      err,
			Category: CategoryCanceled,
			Severity: SeverityLow,
			ExitCode: ExitCanceled,
			UserMsg:  "Operation was canceled.",
		}

	case errors.Is(err, context.DeadlineExceeded):
		return &ClassifiedError{
			Err:       err,
			Category:  CategoryTimeout,
			Severity:  SeverityMedium,
			Retryable: true,
			ExitCode:  ExitTimeout,
			UserMsg:   "Operation timed out.",
		}

	default:
		return &ClassifiedError{
			Err:      err,
			Category: CategoryUnknown,
			Severity: SeverityMedium,
			ExitCode: ExitGeneric,
			UserMsg:  "An unexpected error occurred.",
		}
	}
}

// GetCategory returns the category of err, or unknown.
func GetCategory(err error) ErrorCategory {
	classified := ClassifyError(err)
	if classified == nil {
		return CategoryUnknown
	}
	return classified.Category
}

// ExitCodeFor maps err to a process exit status; nil maps to 0.
func ExitCodeFor(err error) int {
	classified := ClassifyError(err)
	if classified == nil {
		return 0
	}
	return classified.ExitCode
}

// GetUserMessage returns the operator-facing message for err.
func GetUserMessage(err error) string {
	classified := ClassifyError(err)
	if classified == nil {
		return "An error occurred."
	}
	return classified.UserMsg
}

// FormatErrorForLogging formats an error for structured logging
func FormatErrorForLogging(err error) map[string]interface{} {
	if err == nil {
		return nil
	}

	classified := ClassifyError(err)
	result := map[string]interface{}{
		"error":    err.Error(),
		"category": string(classified.Category),
		"severity": string(classified.Severity),
	}

	if code, ok := GetExitCode(err); ok {
		result["exit_code"] = code
	}
	var timeout *CommandTimedOutError
	if errors.As(err, &timeout) {
		result["timeout"] = timeout.Timeout
	}

	return result
}

// LogError logs an error with its classification fields
func LogError(logger interface{ Error(string, ...interface{}) }, err error, msg string) {
	if err == nil {
		return
	}

	logData := FormatErrorForLogging(err)
	args := make([]interface{}, 0, len(logData)*2)
	for k, v := range logData {
		args = append(args, k, v)
	}

	logger.Error(msg, args...)
}
