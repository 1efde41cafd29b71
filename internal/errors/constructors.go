package errors

// ConfigNotFound is returned by config.Load when path does not exist.
func ConfigNotFound(path string) *DocForgeError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *DocForgeError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

// ValidationFailed reports a bad config field or build request value.
func ValidationFailed(field, reason string) *DocForgeError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// StepFailed wraps an unclassified error from a lifecycle step.
func StepFailed(step string, cause error) *DocForgeError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build step failed").
		WithContext("step", step)
}

// FileSystemError covers Move, Clean and artifact measurement failures.
func FileSystemError(operation string, cause error) *DocForgeError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// ContractViolation marks a backend that does not honor the Backend
// contract, such as one without a build step.
func ContractViolation(message string, cause error) *DocForgeError {
	return Wrap(cause, CategoryContract, SeverityFatal, message)
}

func Canceled(step string, cause error) *DocForgeError {
	return Wrap(cause, CategoryCanceled, SeverityError, "build canceled").
		WithContext("step", step)
}

// CheckoutFailed is retryable; an unknown ref is still reported through it
// once the build service gives up.
func CheckoutFailed(repo string, cause error) *DocForgeError {
	return WrapRetryable(cause, CategoryCheckout, SeverityFatal, "repository checkout failed").
		WithContext("repository", repo)
}

// NotifyFailed is a warning: the artifact is already in place.
func NotifyFailed(subject string, cause error) *DocForgeError {
	return Wrap(cause, CategoryNotify, SeverityWarning, "publish notification failed").
		WithContext("subject", subject)
}
