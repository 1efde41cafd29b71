package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/docforge/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Selector `embed:""`

	Force      bool `help:"Force a rebuild"`
	NoClean    bool `name:"no-clean" help:"Keep output left by a previous build"`
	NoCheckout bool `name:"no-checkout" help:"Build the existing checkout without fetching"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if b.Force {
		cfg.Build.Force = true
	}
	if b.NoClean {
		cfg.Build.Clean = false
	}
	if b.NoCheckout {
		cfg.Project.Repository = ""
	}
	cfg, err = b.apply(cfg)
	if err != nil {
		return err
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results, err := build.BuildAll(ctx, rt.svc, cfg, rt.project)
	rt.flushMetrics()
	printResults(results)
	return err
}
