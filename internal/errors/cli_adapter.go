package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
)

// Exit codes returned by the docforge binary.
const (
	ExitOK          = 0
	ExitGeneral     = 1
	ExitUsage       = 2
	ExitConfig      = 7
	ExitExternal    = 8
	ExitInternal    = 10
	ExitBuild       = 11
	ExitContract    = 13
	ExitInterrupted = 130
)

var exitCodes = map[ErrorCategory]int{
	CategoryValidation: ExitUsage,
	CategoryConfig:     ExitConfig,
	CategoryCheckout:   ExitExternal,
	CategoryNotify:     ExitExternal,
	CategoryBuild:      ExitBuild,
	CategoryFileSystem: ExitBuild,
	CategoryContract:   ExitContract,
	CategoryCanceled:   ExitInterrupted,
	CategoryInternal:   ExitInternal,
}

// CLIErrorAdapter turns errors returned by commands into a message on
// stderr and a process exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates an adapter writing to os.Stderr.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr, exit: os.Exit}
}

// ExitCodeFor maps err to an exit code; unclassified errors yield ExitGeneral.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	dfe, ok := As(err)
	if !ok {
		return ExitGeneral
	}
	if code, known := exitCodes[dfe.Category]; known {
		return code
	}
	return ExitGeneral
}

// FormatError renders err for a terminal. Verbose mode prints the full chain.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	dfe, ok := As(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return dfe.Error()
	}

	var msg string
	switch dfe.Category {
	case CategoryConfig, CategoryValidation:
		msg = dfe.Message
		if reason, ok := dfe.Context["reason"].(string); ok && reason != "" {
			msg = fmt.Sprintf("%s: %s", msg, reason)
		} else if dfe.Cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, dfe.Cause)
		}
	default:
		msg = fmt.Sprintf("%s: %s", dfe.Category, dfe.Message)
	}
	if dfe.Retryable {
		msg += " (temporary, try again)"
	}
	return msg
}

// HandleError reports err and exits. A nil error is a no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	dfe, ok := As(err)
	if !ok {
		return true
	}
	switch dfe.Category {
	case CategoryInternal, CategoryContract:
		return true
	case CategoryCanceled:
		return false
	}
	return dfe.Severity == SeverityFatal && dfe.Category != CategoryConfig && dfe.Category != CategoryValidation
}

func (a *CLIErrorAdapter) logError(err error) {
	dfe, ok := As(err)
	if !ok {
		a.logger.Error("Unclassified error", slog.String("error", err.Error()))
		return
	}

	keys := make([]string, 0, len(dfe.Context))
	for k := range dfe.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys)+3)
	attrs = append(attrs, slog.String("category", string(dfe.Category)))
	for _, k := range keys {
		attrs = append(attrs, slog.Any(k, dfe.Context[k]))
	}
	if dfe.Cause != nil {
		attrs = append(attrs, slog.String("cause", dfe.Cause.Error()))
	}
	if dfe.Retryable {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	a.logger.LogAttrs(context.Background(), severityLevel(dfe.Severity), dfe.Message, attrs...)
}

func severityLevel(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
