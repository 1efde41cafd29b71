// Package errors classifies failures of a docforge build so the CLI can pick
// an exit code and the orchestrator can decide what to retry.
//
// Lifecycle operations return plain errors. The build service attaches a
// DocForgeError when a step fails, keeping the original reachable through
// Unwrap so errors.Is still matches fs.ErrNotExist, context.Canceled and
// builder.ErrNotImplemented.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory names the part of a build that failed.
type ErrorCategory string

const (
	// configuration file and request problems; the user has to fix them
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// remote systems: git remotes and the NATS server
	CategoryCheckout ErrorCategory = "checkout"
	CategoryNotify   ErrorCategory = "notify"

	// lifecycle steps
	CategoryBuild      ErrorCategory = "build"
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryContract   ErrorCategory = "contract" // backend broke the Backend contract

	CategoryCanceled ErrorCategory = "canceled"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity tells whether a build can continue after the error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // build stops
	SeverityError   ErrorSeverity = "error"   // step failed, no artifact
	SeverityWarning ErrorSeverity = "warning" // artifact published, side effect lost
	SeverityInfo    ErrorSeverity = "info"
)

// DocForgeError is a classified build failure. Context holds the step,
// path, field or repository the error is about.
type DocForgeError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields are logged as attributes by the CLI adapter.
type ContextFields map[string]any

// Error renders "category (severity): message[: cause]".
func (e *DocForgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

func (e *DocForgeError) Unwrap() error {
	return e.Cause
}

// WithContext sets key and returns e for chaining.
func (e *DocForgeError) WithContext(key string, value any) *DocForgeError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New returns an error without a cause.
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocForgeError {
	return &DocForgeError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap classifies err.
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocForgeError {
	return &DocForgeError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// WrapRetryable is Wrap for failures that may pass on a later attempt.
// The build service retries checkouts only while the error stays retryable.
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocForgeError {
	e := Wrap(err, category, severity, message)
	e.Retryable = true
	return e
}

// As finds the outermost DocForgeError in err's chain.
func As(err error) (*DocForgeError, bool) {
	var dfe *DocForgeError
	if stderrors.As(err, &dfe) {
		return dfe, true
	}
	return nil, false
}

func IsCategory(err error, category ErrorCategory) bool {
	if dfe, ok := As(err); ok {
		return dfe.Category == category
	}
	return false
}

func IsRetryable(err error) bool {
	if dfe, ok := As(err); ok {
		return dfe.Retryable
	}
	return false
}

// GetCategory reports CategoryInternal for unclassified errors.
func GetCategory(err error) ErrorCategory {
	if dfe, ok := As(err); ok {
		return dfe.Category
	}
	return CategoryInternal
}
