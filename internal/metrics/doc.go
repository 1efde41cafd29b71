// Package metrics provides build metrics for docforge.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional:
//
//	svc := build.NewBuildService(cfg).WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// PrometheusRecorder registers its collectors on a caller-supplied registry.
// One-shot CLI runs export that registry with WriteTextfile (for the node
// exporter textfile collector); the daemon serves it over HTTP with
// HTTPHandler.
package metrics
