package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultSkipped  ResultLabel = "skipped"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// BuildOutcomeLabel enumerates final build outcomes.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for lifecycle step and build metrics.
type Recorder interface {
	ObserveStepDuration(format, step string, d time.Duration)
	IncStepResult(format, step string, result ResultLabel)
	ObserveBuildDuration(format string, d time.Duration)
	IncBuildOutcome(format string, outcome BuildOutcomeLabel)
	SetArtifactBytes(project, version, format string, n int64)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(string, string, time.Duration) {}
func (NoopRecorder) IncStepResult(string, string, ResultLabel) {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string, BuildOutcomeLabel) {}
func (NoopRecorder) SetArtifactBytes(string, string, string, int64) {}
