// Package workdir guards the process working directory around operations that
// may change it.
//
// The working directory is process-wide state. Build backends are free to
// chdir while they run; wrapping them with Restore guarantees that the
// directory observed by the caller after the call equals the one observed
// before it, whether the operation returns normally, returns an error, or
// panics.
package workdir
