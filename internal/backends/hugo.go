package backends

import (
	"context"
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/environment"
)

// Hugo builds a hugo site that lives in the docs directory.
type Hugo struct {
	docsDir   string
	extraArgs []string
}

// NewHugo returns the hugo backend. extraArgs are appended to the hugo
// command line.
func NewHugo(docsDir string, extraArgs ...string) *Hugo {
	return &Hugo{docsDir: docsDir, extraArgs: extraArgs}
}

func (h *Hugo) Type() string { return "html" }

func (h *Hugo) OldArtifactPath(lc *builder.Lifecycle) string {
	return filepath.Join(docsDir(lc, h.docsDir), "public")
}

func (h *Hugo) Build(ctx context.Context, lc *builder.Lifecycle) error {
	logForced(lc)
	args := append([]string{"hugo", "--destination", lc.OldArtifactPath()}, h.extraArgs...)
	if _, err := lc.Run(ctx, environment.Command{Args: args, Dir: docsDir(lc, h.docsDir)}); err != nil {
		return fmt.Errorf("hugo: %w", err)
	}
	return nil
}

// MkDocs builds with mkdocs from the checkout root.
type MkDocs struct {
	docsDir string
}

// NewMkDocs returns the mkdocs backend. docsDir must match docs_dir in
// mkdocs.yml; empty means probe.
func NewMkDocs(docsDir string) *MkDocs { return &MkDocs{docsDir: docsDir} }

func (m *MkDocs) Type() string { return "html" }

func (m *MkDocs) OldArtifactPath(lc *builder.Lifecycle) string {
	return buildDir(lc, "html")
}

func (m *MkDocs) Build(ctx context.Context, lc *builder.Lifecycle) error {
	logForced(lc)
	if err := lc.CreateIndexIn(docsDir(lc, m.docsDir), "md"); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	cmd := environment.Command{
		Args: []string{"mkdocs", "build", "--clean", "--site-dir", lc.OldArtifactPath()},
		Dir:  lc.CheckoutPath(),
	}
	if _, err := lc.Run(ctx, cmd); err != nil {
		return fmt.Errorf("mkdocs: %w", err)
	}
	return nil
}
