package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocForgeError_Error(t *testing.T) {
	assert.Equal(t, "config (fatal): configuration invalid",
		New(CategoryConfig, SeverityFatal, "configuration invalid").Error())
	assert.Equal(t, "config (fatal): failed to load config: file not found",
		Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config").Error())
}

func TestDocForgeError_WithContext(t *testing.T) {
	err := New(CategoryCheckout, SeverityWarning, "clone failed").
		WithContext("repository", "manual").
		WithContext("ref", "v1.0.0")

	require.NotNil(t, err.Context)
	assert.Equal(t, "manual", err.Context["repository"])
	assert.Equal(t, "v1.0.0", err.Context["ref"])
}

func TestClassification(t *testing.T) {
	checkoutErr := CheckoutFailed("https://example.com/repo.git", fmt.Errorf("timeout"))
	wrapped := fmt.Errorf("latest/html: %w", checkoutErr)
	plain := fmt.Errorf("plain")

	assert.True(t, IsCategory(wrapped, CategoryCheckout))
	assert.False(t, IsCategory(wrapped, CategoryConfig))
	assert.False(t, IsCategory(plain, CategoryConfig))

	assert.True(t, IsRetryable(wrapped))
	assert.False(t, IsRetryable(ConfigNotFound("x.yaml")))
	assert.False(t, IsRetryable(plain))

	assert.Equal(t, CategoryCheckout, GetCategory(wrapped))
	assert.Equal(t, CategoryInternal, GetCategory(plain))

	dfe, ok := As(wrapped)
	require.True(t, ok)
	assert.Same(t, checkoutErr, dfe)
	_, ok = As(plain)
	assert.False(t, ok)
}

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	tests := []struct {
		name     string
		err      *DocForgeError
		category ErrorCategory
		severity ErrorSeverity
		key      string
		value    any
	}{
		{"config not found", ConfigNotFound("/etc/docforge.yaml"), CategoryConfig, SeverityFatal, "path", "/etc/docforge.yaml"},
		{"config invalid", ConfigInvalid("docforge.yaml", cause), CategoryConfig, SeverityFatal, "path", "docforge.yaml"},
		{"validation", ValidationFailed("formats", "unsupported value"), CategoryValidation, SeverityFatal, "field", "formats"},
		{"step", StepFailed("move", cause), CategoryBuild, SeverityFatal, "step", "move"},
		{"filesystem", FileSystemError("copy", cause), CategoryFileSystem, SeverityFatal, "operation", "copy"},
		{"canceled", Canceled("build", cause), CategoryCanceled, SeverityError, "step", "build"},
		{"notify", NotifyFailed("docforge.demo.latest.html", cause), CategoryNotify, SeverityWarning, "subject", "docforge.demo.latest.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.severity, tt.err.Severity)
			assert.Equal(t, tt.value, tt.err.Context[tt.key])
		})
	}
	assert.True(t, stderrors.Is(StepFailed("move", cause), cause))
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{fmt.Errorf("plain"), ExitGeneral},
		{ValidationFailed("formats", "empty"), ExitUsage},
		{ConfigNotFound("x.yaml"), ExitConfig},
		{CheckoutFailed("repo", fmt.Errorf("x")), ExitExternal},
		{NotifyFailed("subj", fmt.Errorf("x")), ExitExternal},
		{StepFailed("build", fmt.Errorf("x")), ExitBuild},
		{FileSystemError("copy", fmt.Errorf("x")), ExitBuild},
		{ContractViolation("unimplemented", fmt.Errorf("x")), ExitContract},
		{Canceled("build", fmt.Errorf("x")), ExitInterrupted},
		{Wrap(fmt.Errorf("x"), CategoryInternal, SeverityFatal, "boom"), ExitInternal},
		{New("unknown", SeverityError, "?"), ExitGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.ExitCodeFor(tt.err), "%v", tt.err)
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	a := NewCLIErrorAdapter(false, nil)
	assert.Equal(t, "configuration file not found", a.FormatError(ConfigNotFound("x.yaml")))
	assert.Equal(t, "validation failed: unknown format", a.FormatError(ValidationFailed("formats[0]", "unknown format")))
	assert.Equal(t, "build: build step failed", a.FormatError(StepFailed("move", fmt.Errorf("x"))))
	assert.Equal(t, "checkout: repository checkout failed (temporary, try again)",
		a.FormatError(CheckoutFailed("repo", fmt.Errorf("x"))))
	assert.Equal(t, "Error: plain", a.FormatError(fmt.Errorf("plain")))
	assert.Empty(t, a.FormatError(nil))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Equal(t, "build (fatal): build step failed: x", verbose.FormatError(StepFailed("move", fmt.Errorf("x"))))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	a.out = &out
	code := -1
	a.exit = func(c int) { code = c }

	a.HandleError(nil)
	assert.Equal(t, -1, code)

	a.HandleError(StepFailed("move", fmt.Errorf("disk full")))
	assert.Equal(t, ExitBuild, code)
	assert.Equal(t, "build: build step failed\n", out.String())
	assert.Contains(t, logs.String(), "step=move")
	assert.Contains(t, logs.String(), `cause="disk full"`)

	logs.Reset()
	out.Reset()
	a.HandleError(ValidationFailed("formats", "empty"))
	assert.Equal(t, ExitUsage, code)
	assert.Empty(t, logs.String())
}
