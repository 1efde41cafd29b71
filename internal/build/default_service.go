package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docforge/internal/backends"
	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/checkout"
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/environment"
	dferrors "git.home.luguber.info/inful/docforge/internal/errors"
	"git.home.luguber.info/inful/docforge/internal/fsutil"
	"git.home.luguber.info/inful/docforge/internal/history"
	"git.home.luguber.info/inful/docforge/internal/logfields"
	"git.home.luguber.info/inful/docforge/internal/metrics"
	"git.home.luguber.info/inful/docforge/internal/notify"
	"git.home.luguber.info/inful/docforge/internal/observability"
	"git.home.luguber.info/inful/docforge/internal/project"
	"git.home.luguber.info/inful/docforge/internal/retry"
)

// BackendFactory returns the backend for a configured format name.
type BackendFactory func(format string) (builder.Backend, error)

// EnvironmentFactory binds an execution environment to a project version.
type EnvironmentFactory func(p project.Project, v project.Version) builder.Environment

// Checkouter materializes a repository ref on disk.
type Checkouter interface {
	Checkout(ctx context.Context, url, ref, dest string) (*checkout.Result, error)
}

// HistorySink stores build history events.
type HistorySink interface {
	Append(ctx context.Context, e history.Event) error
}

// DefaultBuildService is the standard implementation of BuildService.
type DefaultBuildService struct {
	backendFactory     BackendFactory
	environmentFactory EnvironmentFactory
	checkouter         Checkouter
	checkoutRetry      retry.Policy
	recorder           metrics.Recorder
	history            HistorySink
	publisher          notify.Publisher
	now                func() time.Time
	newID              func() string
}

// NewBuildService creates a DefaultBuildService whose backends are configured
// from cfg.
func NewBuildService(cfg *config.Config) *DefaultBuildService {
	return &DefaultBuildService{
		backendFactory: func(format string) (builder.Backend, error) {
			return backends.Lookup(format, cfg)
		},
		environmentFactory: func(p project.Project, v project.Version) builder.Environment {
			return environment.NewLocal(p, v)
		},
		checkouter:    checkout.NewClient().WithDepth(cfg.Checkout.Depth),
		checkoutRetry: retry.FromCheckout(cfg.Checkout),
		recorder:      metrics.NoopRecorder{},
		publisher:     notify.NoopPublisher{},
		now:           time.Now,
		newID:         history.NewBuildID,
	}
}

// WithBackendFactory allows injecting a custom backend factory (for testing).
func (s *DefaultBuildService) WithBackendFactory(f BackendFactory) *DefaultBuildService {
	s.backendFactory = f
	return s
}

// WithEnvironmentFactory allows injecting a custom environment factory (for testing).
func (s *DefaultBuildService) WithEnvironmentFactory(f EnvironmentFactory) *DefaultBuildService {
	s.environmentFactory = f
	return s
}

// WithCheckouter replaces the git checkout client.
func (s *DefaultBuildService) WithCheckouter(c Checkouter) *DefaultBuildService {
	s.checkouter = c
	return s
}

// WithRetryPolicy sets the backoff applied to failed checkouts.
func (s *DefaultBuildService) WithRetryPolicy(p retry.Policy) *DefaultBuildService {
	s.checkoutRetry = p
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory enables build history.
func (s *DefaultBuildService) WithHistory(h HistorySink) *DefaultBuildService {
	s.history = h
	return s
}

// WithPublisher sets the artifact notification publisher.
func (s *DefaultBuildService) WithPublisher(p notify.Publisher) *DefaultBuildService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// run carries the state of one build attempt between steps.
type run struct {
	req    BuildRequest
	result *BuildResult
	lc     *builder.Lifecycle
	moved  bool // this run copied fresh output to the target
}

// Run executes the complete build pipeline.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	start := s.now()
	result := &BuildResult{
		BuildID:   s.newID(),
		Project:   req.Project.Slug,
		Version:   req.Version.Slug,
		Format:    req.Format,
		Status:    BuildStatusRunning,
		StartTime: start,
	}

	if req.Project.Slug == "" {
		return s.finish(ctx, result, dferrors.ValidationFailed("project", ErrNoProject.Error()))
	}
	if req.Format == "" {
		return s.finish(ctx, result, dferrors.ValidationFailed("format", ErrNoFormat.Error()))
	}

	ctx = observability.WithBuildID(ctx, result.BuildID)
	ctx = observability.WithTarget(ctx, req.Project.Slug, req.Version.Slug, req.Format)
	observability.InfoContext(ctx, "Starting build", logfields.Ref(req.Version.Ref))
	s.appendHistory(ctx, result, history.StepBuild, history.StatusStarted, "")

	r := &run{req: req, result: result}
	steps := []struct {
		name    string
		enabled bool
		fn      func(ctx context.Context, r *run) error
	}{
		{StepCheckout, req.Repository != "", s.stepCheckout},
		{StepLifecycle, true, s.stepLifecycle},
		{StepForce, req.Force, func(context.Context, *run) error { r.lc.Force(); return nil }},
		{StepClean, req.Clean, func(context.Context, *run) error { return r.lc.Clean() }},
		{StepCreateIndex, req.CreateIndex, func(context.Context, *run) error {
			return r.lc.CreateIndexIn(r.lc.ResolveDocsDir(req.DocsDir), req.IndexExtension)
		}},
		{StepBuild, true, func(ctx context.Context, r *run) error { return r.lc.Build(ctx) }},
		{StepMove, true, s.stepMove},
		{StepNotify, true, s.stepNotify},
	}

	for _, st := range steps {
		if err := s.step(ctx, r, st.name, st.enabled, st.fn); err != nil {
			return s.finish(ctx, result, err)
		}
	}
	return s.finish(ctx, result, nil)
}

func (s *DefaultBuildService) step(ctx context.Context, r *run, name string, enabled bool, fn func(context.Context, *run) error) error {
	ctx = observability.WithStep(ctx, name)
	if err := ctx.Err(); err != nil {
		s.recordStep(ctx, r, StepResult{Name: name, Status: StepStatusCanceled, Err: err})
		return dferrors.Canceled(name, err)
	}
	if !enabled {
		s.recordStep(ctx, r, StepResult{Name: name, Status: StepStatusSkipped})
		return nil
	}

	start := s.now()
	err := fn(ctx, r)
	sr := StepResult{Name: name, Status: StepStatusSuccess, Duration: s.now().Sub(start), Err: err}
	switch {
	case err == nil:
	case errors.Is(err, errStepSkipped):
		sr.Status = StepStatusSkipped
		sr.Err = nil
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		sr.Status = StepStatusCanceled
		s.recordStep(ctx, r, sr)
		return dferrors.Canceled(name, err)
	case name == StepNotify:
		// notification failures never fail a published build
		sr.Status = StepStatusWarning
		s.recordStep(ctx, r, sr)
		observability.WarnContext(ctx, "Artifact notification failed", logfields.Error(err))
		return nil
	default:
		sr.Status = StepStatusFailed
		s.recordStep(ctx, r, sr)
		var de *dferrors.DocForgeError
		if errors.As(err, &de) {
			return de
		}
		if errors.Is(err, builder.ErrNotImplemented) {
			return dferrors.ContractViolation("backend build not implemented", err).WithContext("step", name)
		}
		return dferrors.StepFailed(name, err)
	}
	s.recordStep(ctx, r, sr)
	return nil
}

func (s *DefaultBuildService) stepCheckout(ctx context.Context, r *run) error {
	dest := r.req.Project.CheckoutPath(r.req.Version.Slug)
	var res *checkout.Result
	err := s.checkoutRetry.Do(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.checkouter.Checkout(ctx, r.req.Repository, r.req.Version.Ref, dest)
		return err
	}, func(err error) bool {
		return !errors.Is(err, checkout.ErrRefNotFound)
	}, func(attempt int, delay time.Duration, err error) {
		observability.WarnContext(ctx, "Checkout failed, retrying",
			logfields.URL(r.req.Repository),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			logfields.Error(err))
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return dferrors.CheckoutFailed(r.req.Repository, err)
	}
	r.result.Commit = res.Commit
	return nil
}

func (s *DefaultBuildService) stepLifecycle(ctx context.Context, r *run) error {
	backend, err := s.backendFactory(r.req.Format)
	if err != nil {
		return dferrors.ValidationFailed("format", err.Error())
	}
	env := s.environmentFactory(r.req.Project, project.Version{Slug: r.req.Version.Slug})
	lc, err := builder.New(env, backend,
		builder.WithLogger(slog.Default().With(logfields.BuildID(r.result.BuildID))))
	if err != nil {
		return err
	}
	r.lc = lc
	r.result.Target = lc.Target()
	observability.DebugContext(ctx, "Lifecycle ready",
		logfields.Source(lc.OldArtifactPath()),
		logfields.Target(lc.Target()))
	return nil
}

func (s *DefaultBuildService) stepMove(_ context.Context, r *run) error {
	produced, err := fsutil.Present(r.lc.OldArtifactPath())
	if err != nil {
		return dferrors.FileSystemError("move", err)
	}
	if err := r.lc.Move(); err != nil {
		return dferrors.FileSystemError("move", err)
	}
	if !produced {
		return nil
	}
	r.moved = true
	n, err := fsutil.TreeSize(r.lc.Target())
	if err != nil {
		return dferrors.FileSystemError("measure artifact", err)
	}
	r.result.ArtifactBytes = n
	s.recorder.SetArtifactBytes(r.req.Project.Slug, r.req.Version.Slug, r.req.Format, n)
	return nil
}

func (s *DefaultBuildService) stepNotify(ctx context.Context, r *run) error {
	if !r.moved {
		return errStepSkipped
	}
	ev := notify.ArtifactPublished{
		BuildID:   r.result.BuildID,
		Project:   r.req.Project.Slug,
		Version:   r.req.Version.Slug,
		Format:    r.lc.Type(),
		Path:      r.lc.Target(),
		Bytes:     r.result.ArtifactBytes,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		return dferrors.NotifyFailed(r.req.Project.Slug, err)
	}
	return nil
}

func (s *DefaultBuildService) recordStep(ctx context.Context, r *run, sr StepResult) {
	r.result.Steps = append(r.result.Steps, sr)
	format := r.req.Format
	if sr.Status != StepStatusSkipped {
		s.recorder.ObserveStepDuration(format, sr.Name, sr.Duration)
	}
	s.recorder.IncStepResult(format, sr.Name, resultLabel(sr.Status))

	msg := ""
	if sr.Err != nil {
		msg = sr.Err.Error()
	}
	s.appendHistory(ctx, r.result, sr.Name, string(sr.Status), msg)

	attrs := []slog.Attr{slog.String("status", string(sr.Status)), logfields.DurationMS(float64(sr.Duration.Milliseconds()))}
	switch sr.Status {
	case StepStatusFailed:
		observability.ErrorContext(ctx, "Build step failed", append(attrs, logfields.Error(sr.Err))...)
	case StepStatusSkipped:
		observability.DebugContext(ctx, "Build step skipped", attrs...)
	default:
		observability.DebugContext(ctx, "Build step finished", attrs...)
	}
}

func (s *DefaultBuildService) finish(ctx context.Context, result *BuildResult, err error) (*BuildResult, error) {
	result.EndTime = s.now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	outcome := metrics.BuildOutcomeSuccess
	switch {
	case err == nil:
		result.Status = BuildStatusSuccess
	case dferrors.IsCategory(err, dferrors.CategoryCanceled):
		result.Status = BuildStatusCanceled
		outcome = metrics.BuildOutcomeCanceled
	default:
		result.Status = BuildStatusFailed
		outcome = metrics.BuildOutcomeFailed
	}
	s.recorder.IncBuildOutcome(result.Format, outcome)
	s.recorder.ObserveBuildDuration(result.Format, result.Duration)

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	// the caller's context may already be canceled; the outcome still gets recorded
	s.appendHistory(context.WithoutCancel(ctx), result, history.StepBuild, string(result.Status), msg)

	attrs := []slog.Attr{slog.String("status", string(result.Status)), logfields.DurationMS(float64(result.Duration.Milliseconds()))}
	if err != nil {
		observability.ErrorContext(ctx, "Build finished", append(attrs, logfields.Error(err))...)
	} else {
		observability.InfoContext(ctx, "Build finished", append(attrs, logfields.Target(result.Target))...)
	}
	return result, err
}

func (s *DefaultBuildService) appendHistory(ctx context.Context, result *BuildResult, step, status, msg string) {
	if s.history == nil {
		return
	}
	ev := history.Event{
		BuildID: result.BuildID,
		Project: result.Project,
		Version: result.Version,
		Format:  result.Format,
		Step:    step,
		Status:  status,
		Message: msg,
		Time:    s.now(),
	}
	if err := s.history.Append(ctx, ev); err != nil {
		observability.WarnContext(ctx, "Failed to record build history", logfields.Error(err))
	}
}

func resultLabel(st StepStatus) metrics.ResultLabel {
	switch st {
	case StepStatusSuccess:
		return metrics.ResultSuccess
	case StepStatusSkipped:
		return metrics.ResultSkipped
	case StepStatusWarning:
		return metrics.ResultWarning
	case StepStatusCanceled:
		return metrics.ResultCanceled
	default:
		return metrics.ResultFatal
	}
}

// BuildAll builds every configured version in every configured format,
// sequentially. The checkout runs once per version. It stops early only when
// ctx is canceled; the returned error joins every failed build.
func BuildAll(ctx context.Context, svc BuildService, cfg *config.Config, p project.Project) ([]*BuildResult, error) {
	var (
		results []*BuildResult
		errs    []error
	)
	for _, v := range cfg.Versions {
		for i, format := range cfg.Formats {
			if err := ctx.Err(); err != nil {
				return results, errors.Join(append(errs, err)...)
			}
			req := NewRequest(cfg, p, v, format)
			if i > 0 {
				req.Repository = ""
			}
			res, err := svc.Run(ctx, req)
			if res != nil {
				results = append(results, res)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("%s/%s: %w", v.Slug, format, err))
			}
		}
	}
	return results, errors.Join(errs...)
}
