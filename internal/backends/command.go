package backends

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/config"
	"git.home.luguber.info/inful/docforge/internal/environment"
	"git.home.luguber.info/inful/docforge/internal/project"
)

var ErrCommandNotConfigured = errors.New("command backend requires args")

// Command runs an arbitrary tool in the docs directory and publishes the
// directory it writes to.
type Command struct {
	docsDir string
	typ     string
	args    []string
	output  string
}

// NewCommand returns the command backend. The output directory defaults to
// _build/<type> under the checkout.
func NewCommand(docsDir string, cfg config.CommandBackendConfig) (*Command, error) {
	if len(cfg.Args) == 0 {
		return nil, ErrCommandNotConfigured
	}
	typ := cfg.Type
	if typ == "" {
		typ = "pdf"
	}
	if err := project.ValidateType(typ); err != nil {
		return nil, err
	}
	output := cfg.Output
	if output == "" {
		output = filepath.Join("_build", typ)
	}
	return &Command{docsDir: docsDir, typ: typ, args: cfg.Args, output: output}, nil
}

func (c *Command) Type() string { return c.typ }

func (c *Command) OldArtifactPath(lc *builder.Lifecycle) string {
	if filepath.IsAbs(c.output) {
		return c.output
	}
	return filepath.Join(lc.CheckoutPath(), c.output)
}

func (c *Command) Build(ctx context.Context, lc *builder.Lifecycle) error {
	logForced(lc)
	cmd := environment.Command{
		Args: c.args,
		Dir:  docsDir(lc, c.docsDir),
		Env: []string{
			"DOCFORGE_OUTPUT=" + lc.OldArtifactPath(),
			"DOCFORGE_PROJECT=" + lc.Project().Slug,
			"DOCFORGE_VERSION=" + lc.Version().Slug,
		},
	}
	if _, err := lc.Run(ctx, cmd); err != nil {
		return fmt.Errorf("%s: %w", c.args[0], err)
	}
	return nil
}
