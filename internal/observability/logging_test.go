package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWithBuildID(t *testing.T) {
	ctx := WithBuildID(context.Background(), "build-123")

	lc := GetContext(ctx)
	if lc.BuildID != "build-123" {
		t.Errorf("expected build-123, got %s", lc.BuildID)
	}
}

func TestWithTargetAndStep(t *testing.T) {
	ctx := WithTarget(context.Background(), "demo", "latest", "html")
	ctx = WithStep(ctx, "move")

	lc := GetContext(ctx)
	if lc.Project != "demo" || lc.Version != "latest" || lc.Format != "html" {
		t.Errorf("unexpected target context: %+v", lc)
	}
	if lc.Step != "move" {
		t.Errorf("expected step move, got %s", lc.Step)
	}
}

func TestContextValuesAreCopied(t *testing.T) {
	parent := WithStep(context.Background(), "build")
	child := WithStep(parent, "move")

	if GetContext(parent).Step != "build" {
		t.Errorf("parent context mutated: %+v", GetContext(parent))
	}
	if GetContext(child).Step != "move" {
		t.Errorf("expected child step move, got %s", GetContext(child).Step)
	}
}

func TestInfoContext_IncludesAttributes(t *testing.T) {
	buf := captureDefault(t)
	ctx := WithBuildID(context.Background(), "b-1")
	ctx = WithStep(ctx, "clean")

	InfoContext(ctx, "Removing old artifact path", slog.String("path", "/tmp/x"))

	out := buf.String()
	for _, want := range []string{"build_id=b-1", "step=clean", "path=/tmp/x", "Removing old artifact path"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestLogger_EmptyContext(t *testing.T) {
	buf := captureDefault(t)

	Logger(context.Background()).Warn("nothing attached")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
