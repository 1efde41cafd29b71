// Package build runs complete documentation builds for docforge.
//
// A build carries one project version in one format through the lifecycle:
// checkout, lifecycle construction, force, clean, create_index, build, move
// and notify. Every step is timed, counted in metrics, written to the build
// history and logged with the build id. All execution paths (CLI build,
// watch, daemon) route through BuildService.
package build
