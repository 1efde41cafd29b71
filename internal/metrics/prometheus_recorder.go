package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stepDuration  *prom.HistogramVec
	stepResults   *prom.CounterVec
	buildDuration *prom.HistogramVec
	buildOutcome  *prom.CounterVec
	artifactBytes *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil reg gets a fresh private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stepDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docforge",
			Name:      "step_duration_seconds",
			Help:      "Duration of individual lifecycle steps",
			Buckets:   prom.DefBuckets,
		}, []string{"format", "step"}),
		stepResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docforge",
			Name:      "step_results_total",
			Help:      "Lifecycle step result counts by outcome",
		}, []string{"format", "step", "result"}),
		buildDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docforge",
			Name:      "build_duration_seconds",
			Help:      "Total build duration per format",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"format"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docforge",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"format", "outcome"}),
		artifactBytes: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "docforge",
			Name:      "artifact_bytes",
			Help:      "Size of the last published artifact tree",
		}, []string{"project", "version", "format"}),
	}
	reg.MustRegister(pr.stepDuration, pr.stepResults, pr.buildDuration, pr.buildOutcome, pr.artifactBytes)
	return pr
}

// Registry exposes the registry the recorder's collectors live on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStepDuration(format, step string, d time.Duration) {
	if p == nil {
		return
	}
	p.stepDuration.WithLabelValues(format, step).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStepResult(format, step string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stepResults.WithLabelValues(format, step, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(format string, d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(format string, outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(format, string(outcome)).Inc()
}

func (p *PrometheusRecorder) SetArtifactBytes(project, version, format string, n int64) {
	if p == nil {
		return
	}
	p.artifactBytes.WithLabelValues(project, version, format).Set(float64(n))
}

// WriteTextfile writes the registry in the text exposition format, atomically
// replacing path.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
