// Package builder defines the documentation build lifecycle shared by every
// output format.
//
// A Lifecycle binds one project version and one format Backend to an
// execution Environment. The orchestrator drives it through the fixed steps:
//
//	Force (optional) → Clean → CreateIndex (optional) → Build → Move
//
// Build is supplied by the Backend and leaves generated output under the
// backend's old artifact path; Move then replaces the canonical target
// directory with a full copy of that output. The lifecycle never leaves the
// process working directory changed: Build runs under workdir.Restore.
//
// A Lifecycle is not safe for concurrent use. Independent instances share no
// state as long as their target and old artifact paths do not overlap.
package builder
