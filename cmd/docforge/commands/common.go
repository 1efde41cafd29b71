package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docforge/internal/backends"
	"git.home.luguber.info/inful/docforge/internal/build"
	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/environment"
	dferrors "git.home.luguber.info/inful/docforge/internal/errors"
	"git.home.luguber.info/inful/docforge/internal/history"
	"git.home.luguber.info/inful/docforge/internal/logfields"
	"git.home.luguber.info/inful/docforge/internal/metrics"
	"git.home.luguber.info/inful/docforge/internal/notify"
	"git.home.luguber.info/inful/docforge/internal/project"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docforge.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Build   BuildCmd   `cmd:"" help:"Build and publish documentation artifacts"`
	Clean   CleanCmd   `cmd:"" help:"Remove build output left in the checkout"`
	DocsDir DocsDirCmd `cmd:"" name:"docs-dir" help:"Print the resolved documentation directory"`
	Index   IndexCmd   `cmd:"" help:"Create a placeholder index file when none exists"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild a version whenever its docs change"`
	Daemon  DaemonCmd  `cmd:"" help:"Rebuild every version periodically"`
	History HistoryCmd `cmd:"" help:"Show recent builds or the steps of one build"`
}

// NewParser builds the kong parser for cli.
func NewParser(cli *CLI, version string, opts ...kong.Option) (*kong.Kong, error) {
	base := []kong.Option{
		kong.Name("docforge"),
		kong.Description("Build, version and publish project documentation."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	}
	return kong.New(cli, append(base, opts...)...)
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// LoadConfig loads the configuration file and switches logging to the
// configured level and format. --verbose wins over the configured level.
func (c *CLI) LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Logging
	if c.Verbose {
		logCfg.Level = config.LogLevelDebug
	}
	slog.SetDefault(config.NewLogger(logCfg, os.Stderr))
	return cfg, nil
}

// Selector narrows a command to one version and/or format.
type Selector struct {
	VersionSlug string `name:"version-slug" short:"V" help:"Only this version (default: all configured)"`
	Format      string `short:"f" help:"Only this format (default: all configured)"`
}

// apply returns a copy of cfg restricted to the selection.
func (s Selector) apply(cfg *config.Config) (*config.Config, error) {
	out := *cfg
	if s.VersionSlug != "" {
		v, ok := cfg.FindVersion(s.VersionSlug)
		if !ok {
			return nil, dferrors.ValidationFailed("version-slug", "unknown version "+s.VersionSlug)
		}
		out.Versions = []config.Version{v}
	}
	if s.Format != "" {
		if !backends.IsRegistered(s.Format) {
			return nil, dferrors.ValidationFailed("format", "unknown format "+s.Format)
		}
		if !slices.Contains(cfg.Formats, s.Format) {
			slog.Warn("Format is not enabled in the configuration", logfields.Format(s.Format))
		}
		out.Formats = []string{s.Format}
	}
	return &out, nil
}

// lifecycles builds one Lifecycle per selected version and format.
func lifecycles(cfg *config.Config) ([]*builder.Lifecycle, error) {
	p, err := project.New(cfg.Project.Slug, cfg.Root)
	if err != nil {
		return nil, dferrors.ValidationFailed("project.slug", err.Error())
	}
	var out []*builder.Lifecycle
	for _, v := range cfg.Versions {
		for _, format := range cfg.Formats {
			backend, err := backends.Lookup(format, cfg)
			if err != nil {
				return nil, dferrors.ValidationFailed("format", err.Error())
			}
			lc, err := builder.New(environment.NewLocal(p, project.Version{Slug: v.Slug}), backend)
			if err != nil {
				return nil, err
			}
			out = append(out, lc)
		}
	}
	return out, nil
}

// runtime holds the build service and the optional sinks it reports to.
type runtime struct {
	cfg       *config.Config
	project   project.Project
	svc       *build.DefaultBuildService
	recorder  *metrics.PrometheusRecorder
	history   *history.Store
	publisher notify.Publisher
}

func newRuntime(cfg *config.Config) (*runtime, error) {
	p, err := project.New(cfg.Project.Slug, cfg.Root)
	if err != nil {
		return nil, dferrors.ValidationFailed("project.slug", err.Error())
	}
	rt := &runtime{
		cfg:       cfg,
		project:   p,
		recorder:  metrics.NewPrometheusRecorder(prom.NewRegistry()),
		publisher: notify.NoopPublisher{},
	}
	rt.svc = build.NewBuildService(cfg).WithRecorder(rt.recorder)

	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, dferrors.FileSystemError("open history", err)
		}
		rt.history = store
		rt.svc.WithHistory(store)
	}
	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.SubjectPrefix)
		if err != nil {
			_ = rt.Close()
			return nil, dferrors.NotifyFailed(cfg.Notify.SubjectPrefix, err)
		}
		rt.publisher = pub
		rt.svc.WithPublisher(pub)
	}
	return rt, nil
}

// flushMetrics writes the metrics textfile when one is configured.
func (rt *runtime) flushMetrics() {
	if rt.cfg.Metrics.Textfile == "" {
		return
	}
	if err := rt.recorder.WriteTextfile(rt.cfg.Metrics.Textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(rt.cfg.Metrics.Textfile), logfields.Error(err))
	}
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.history != nil {
		errs = append(errs, rt.history.Close())
	}
	if rt.publisher != nil {
		errs = append(errs, rt.publisher.Close())
	}
	return errors.Join(errs...)
}

func printResults(results []*build.BuildResult) {
	for _, r := range results {
		line := fmt.Sprintf("%-8s %s/%s [%s] %s", r.Status, r.Version, r.Format, r.BuildID, r.Duration.Round(1e6))
		if r.Status.IsSuccess() {
			line += " -> " + r.Target
		}
		fmt.Println(line)
	}
}
