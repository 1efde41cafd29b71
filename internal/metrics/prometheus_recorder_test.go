package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStepDuration("html", "build", 150*time.Millisecond)
	pr.IncStepResult("html", "build", ResultSuccess)
	pr.IncStepResult("html", "move", ResultFatal)
	pr.ObserveBuildDuration("html", 500*time.Millisecond)
	pr.IncBuildOutcome("html", BuildOutcomeFailed)
	pr.SetArtifactBytes("demo", "latest", "html", 2048)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, mfs, 5)

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range mfs {
		byName[mf.GetName()] = mf
	}
	results := byName["docforge_step_results_total"]
	require.NotNil(t, results)
	require.Len(t, results.GetMetric(), 2)
	require.Equal(t, 1.0, results.GetMetric()[0].GetCounter().GetValue())

	gauge := byName["docforge_artifact_bytes"]
	require.NotNil(t, gauge)
	require.Equal(t, 2048.0, gauge.GetMetric()[0].GetGauge().GetValue())

	hist := byName["docforge_build_duration_seconds"]
	require.NotNil(t, hist)
	require.Equal(t, uint64(1), hist.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveStepDuration("html", "build", time.Second)
	pr.IncStepResult("html", "build", ResultSuccess)
	pr.ObserveBuildDuration("html", time.Second)
	pr.IncBuildOutcome("html", BuildOutcomeSuccess)
	pr.SetArtifactBytes("demo", "latest", "html", 1)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome("htmlzip", BuildOutcomeSuccess)

	path := filepath.Join(t.TempDir(), "docforge.prom")
	require.NoError(t, pr.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(b), `docforge_build_outcomes_total{format="htmlzip",outcome="success"} 1`)
}

func TestHTTPHandler(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncStepResult("html", "clean", ResultSkipped)

	rec := httptest.NewRecorder()
	HTTPHandler(pr.Registry()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "docforge_step_results_total"))
}

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)
