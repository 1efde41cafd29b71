package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/config"
	dferrors "git.home.luguber.info/inful/docforge/internal/errors"
)

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Selector `embed:""`
}

func (c *CleanCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	if cfg, err = c.apply(cfg); err != nil {
		return err
	}
	lcs, err := lifecycles(cfg)
	if err != nil {
		return err
	}
	for _, lc := range lcs {
		if err := lc.Clean(); err != nil {
			return dferrors.FileSystemError("clean", err)
		}
	}
	return nil
}

// DocsDirCmd implements the 'docs-dir' command.
type DocsDirCmd struct {
	VersionSlug string `name:"version-slug" short:"V" help:"Version to inspect (default: first configured)"`
	Override    string `help:"Return this directory instead of probing"`
}

func (d *DocsDirCmd) Run(_ *Global, root *CLI) error {
	lc, cfg, err := firstLifecycle(root, d.VersionSlug)
	if err != nil {
		return err
	}
	if d.Override != "" {
		fmt.Println(lc.DocsDir(d.Override))
		return nil
	}
	fmt.Println(lc.ResolveDocsDir(cfg.Project.DocsDir))
	return nil
}

// IndexCmd implements the 'index' command.
type IndexCmd struct {
	VersionSlug string `name:"version-slug" short:"V" help:"Version to update (default: first configured)"`
	Ext         string `help:"Index file extension (default: build.index_extension)"`
}

func (i *IndexCmd) Run(_ *Global, root *CLI) error {
	lc, cfg, err := firstLifecycle(root, i.VersionSlug)
	if err != nil {
		return err
	}
	ext := i.Ext
	if ext == "" {
		ext = cfg.Build.IndexExtension
	}
	if err := lc.CreateIndexIn(lc.ResolveDocsDir(cfg.Project.DocsDir), ext); err != nil {
		return dferrors.FileSystemError("create index", err)
	}
	return nil
}

// firstLifecycle resolves a lifecycle for one version in the first
// configured format, for commands that only need the checkout layout.
func firstLifecycle(root *CLI, versionSlug string) (*builder.Lifecycle, *config.Config, error) {
	cfg, err := root.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	sel := Selector{VersionSlug: versionSlug}
	if cfg, err = sel.apply(cfg); err != nil {
		return nil, nil, err
	}
	cfg.Versions = cfg.Versions[:1]
	cfg.Formats = cfg.Formats[:1]
	lcs, err := lifecycles(cfg)
	if err != nil {
		return nil, nil, err
	}
	return lcs[0], cfg, nil
}
