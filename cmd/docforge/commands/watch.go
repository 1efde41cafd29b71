package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docforge/internal/build"
	"git.home.luguber.info/inful/docforge/internal/logfields"
	"git.home.luguber.info/inful/docforge/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	VersionSlug string `name:"version-slug" short:"V" help:"Version to watch (default: first configured)"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	lc, cfg, err := firstLifecycle(root, w.VersionSlug)
	if err != nil {
		return err
	}
	// reload the full format list for the chosen version
	full, err := root.LoadConfig()
	if err != nil {
		return err
	}
	cfg.Formats = full.Formats
	cfg.Project.Repository = ""

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rebuild := func(ctx context.Context) error {
		results, err := build.BuildAll(ctx, rt.svc, cfg, rt.project)
		rt.flushMetrics()
		printResults(results)
		return err
	}
	if err := rebuild(ctx); err != nil {
		slog.Warn("Initial build failed", logfields.Error(err))
	}

	docs := lc.ResolveDocsDir(cfg.Project.DocsDir)
	return watch.New(docs, rebuild).Run(ctx)
}
