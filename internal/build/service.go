package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/project"
)

// BuildService is the canonical interface for executing documentation builds.
type BuildService interface {
	// Run builds one version in one format and publishes the artifact.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// Step names, in execution order.
const (
	StepCheckout    = "checkout"
	StepLifecycle   = "lifecycle"
	StepForce       = "force"
	StepClean       = "clean"
	StepCreateIndex = "create_index"
	StepBuild       = "build"
	StepMove        = "move"
	StepNotify      = "notify"
)

// Steps lists every step in execution order.
var Steps = []string{StepCheckout, StepLifecycle, StepForce, StepClean, StepCreateIndex, StepBuild, StepMove, StepNotify}

// BuildRequest contains all inputs required to build one version in one format.
type BuildRequest struct {
	Project project.Project
	Version config.Version
	Format  string

	// Repository is checked out at Version.Ref before building. Empty skips
	// the checkout step.
	Repository string

	// DocsDir overrides docs directory probing; relative paths are taken
	// from the checkout.
	DocsDir string

	Force          bool
	Clean          bool
	CreateIndex    bool
	IndexExtension string
}

// NewRequest derives a request for one version and format from cfg.
func NewRequest(cfg *config.Config, p project.Project, v config.Version, format string) BuildRequest {
	return BuildRequest{
		Project:        p,
		Version:        v,
		Format:         format,
		Repository:     cfg.Project.Repository,
		DocsDir:        cfg.Project.DocsDir,
		Force:          cfg.Build.Force,
		Clean:          cfg.Build.Clean,
		CreateIndex:    cfg.Build.CreateIndex,
		IndexExtension: cfg.Build.IndexExtension,
	}
}

// StepStatus is the outcome of one step.
type StepStatus string

const (
	StepStatusSuccess  StepStatus = "success"
	StepStatusSkipped  StepStatus = "skipped"
	StepStatusWarning  StepStatus = "warning"
	StepStatusFailed   StepStatus = "failed"
	StepStatusCanceled StepStatus = "canceled"
)

// StepResult records one executed or skipped step.
type StepResult struct {
	Name     string
	Status   StepStatus
	Duration time.Duration
	Err      error
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	BuildID string
	Project string
	Version string
	Format  string

	Status BuildStatus
	Steps  []StepResult

	// Target is the published artifact directory.
	Target string
	// ArtifactBytes is the size of Target after the move step.
	ArtifactBytes int64
	// Commit is the checked out commit, when a checkout ran.
	Commit string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Step returns the result of the named step.
func (r *BuildResult) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	BuildStatusRunning  BuildStatus = "running"
	BuildStatusSuccess  BuildStatus = "success"
	BuildStatusFailed   BuildStatus = "failed"
	BuildStatusCanceled BuildStatus = "canceled"
)

// IsTerminal returns true if the status represents a final state.
func (s BuildStatus) IsTerminal() bool {
	return s == BuildStatusSuccess || s == BuildStatusFailed || s == BuildStatusCanceled
}

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}
