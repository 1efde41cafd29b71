package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyProject    = "project"
	KeyVersion    = "version"
	KeyFormat     = "format"
	KeyPath       = "path"
	KeyTarget     = "target"
	KeySource     = "source"
	KeyBuildID    = "build_id"
	KeyStep       = "step"
	KeyCommand    = "command"
	KeyExitCode   = "exit_code"
	KeyDurationMS = "duration_ms"
	KeyURL        = "url"
	KeyRef        = "ref"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Project(slug string) slog.Attr   { return slog.String(KeyProject, slug) }
func Version(slug string) slog.Attr   { return slog.String(KeyVersion, slug) }
func Format(t string) slog.Attr       { return slog.String(KeyFormat, t) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Target(p string) slog.Attr       { return slog.String(KeyTarget, p) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Step(name string) slog.Attr      { return slog.String(KeyStep, name) }
func Command(args []string) slog.Attr { return slog.Any(KeyCommand, args) }
func ExitCode(code int) slog.Attr     { return slog.Int(KeyExitCode, code) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
