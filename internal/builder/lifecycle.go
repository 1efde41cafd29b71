package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docforge/internal/environment"
	"git.home.luguber.info/inful/docforge/internal/fsutil"
	"git.home.luguber.info/inful/docforge/internal/logfields"
	"git.home.luguber.info/inful/docforge/internal/project"
	"git.home.luguber.info/inful/docforge/internal/workdir"
)

var (
	ErrNilEnvironment = errors.New("build environment is required")
	ErrNilBackend     = errors.New("build backend is required")
)

// DefaultIndexExtension is used by CreateIndex when no extension is given.
const DefaultIndexExtension = "md"

// docsDirCandidates are probed in order under the checkout path. The order is
// part of the contract: a checkout with both docs/ and doc/ resolves to docs/.
var docsDirCandidates = []string{"docs", "doc", "Doc", "book"}

const indexTemplate = `
Welcome to docforge
-------------------

This is an autogenerated index file.

Please create a ` + "``%[1]s/index.%[2]s``" + ` or ` + "``%[1]s/README.%[2]s``" + ` file with your own content.

If you want to use another markup, choose a different builder in your settings.
`

// Lifecycle carries one build attempt of one version in one format.
type Lifecycle struct {
	env     Environment
	project project.Project
	version project.Version
	backend Backend

	typ             string
	target          string
	oldArtifactPath string
	force           bool

	log *slog.Logger
}

// Option configures a Lifecycle at construction.
type Option func(*Lifecycle)

// WithForce sets the initial force flag.
func WithForce(force bool) Option {
	return func(lc *Lifecycle) { lc.force = force }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(lc *Lifecycle) {
		if l != nil {
			lc.log = l
		}
	}
}

// New constructs a Lifecycle. The artifact target is computed here, once,
// from the environment's project and version; a failure to resolve it is
// returned unchanged.
func New(env Environment, backend Backend, opts ...Option) (*Lifecycle, error) {
	if env == nil {
		return nil, ErrNilEnvironment
	}
	if backend == nil {
		return nil, ErrNilBackend
	}
	lc := &Lifecycle{
		env:     env,
		project: env.Project(),
		version: env.Version(),
		backend: backend,
		typ:     backend.Type(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(lc)
	}

	target, err := lc.project.ArtifactPath(lc.version.Slug, lc.typ)
	if err != nil {
		return nil, err
	}
	lc.target = target
	lc.log = lc.log.With(
		logfields.Project(lc.project.Slug),
		logfields.Version(lc.version.Slug),
		logfields.Format(lc.typ))
	lc.oldArtifactPath = backend.OldArtifactPath(lc)
	return lc, nil
}

func (lc *Lifecycle) Project() project.Project { return lc.project }
func (lc *Lifecycle) Version() project.Version { return lc.version }
func (lc *Lifecycle) Type() string             { return lc.typ }
func (lc *Lifecycle) Target() string           { return lc.target }
func (lc *Lifecycle) OldArtifactPath() string  { return lc.oldArtifactPath }
func (lc *Lifecycle) Forced() bool             { return lc.force }
func (lc *Lifecycle) Logger() *slog.Logger     { return lc.log }

// CheckoutPath is the root of the version's source tree.
func (lc *Lifecycle) CheckoutPath() string {
	return lc.project.CheckoutPath(lc.version.Slug)
}

// Force requests a rebuild even when nothing changed. Idempotent.
func (lc *Lifecycle) Force() {
	lc.log.Info("Forcing a build")
	lc.force = true
}

// Build runs the backend's build step. The working directory is restored
// afterwards however the backend exits.
func (lc *Lifecycle) Build(ctx context.Context) error {
	return workdir.Restore(func() error {
		return lc.backend.Build(ctx, lc)
	})
}

// Move replaces the target directory with a copy of the old artifact path.
// When the backend produced nothing, Move logs a warning and returns nil.
// A stat failure other than not-exist is returned. The source tree is left
// in place.
func (lc *Lifecycle) Move() error {
	present, err := fsutil.Present(lc.oldArtifactPath)
	if err != nil {
		return err
	}
	if !present {
		lc.log.Warn("Not moving docs, because the build dir is unknown", logfields.Source(lc.oldArtifactPath))
		return nil
	}
	if fsutil.Exists(lc.target) {
		if err := os.RemoveAll(lc.target); err != nil {
			return err
		}
	}
	lc.log.Info("Copying artifacts on the local filesystem",
		logfields.Source(lc.oldArtifactPath),
		logfields.Target(lc.target))
	return fsutil.CopyTree(lc.oldArtifactPath, lc.target)
}

// Clean removes the old artifact path if present. It never touches the target.
func (lc *Lifecycle) Clean() error {
	present, err := fsutil.Present(lc.oldArtifactPath)
	if err != nil || !present {
		return err
	}
	if err := os.RemoveAll(lc.oldArtifactPath); err != nil {
		return err
	}
	lc.log.Info("Removing old artifact path", logfields.Path(lc.oldArtifactPath))
	return nil
}

// DocsDir resolves the documentation source directory. A non-empty override
// is returned unchanged; otherwise the first existing candidate under the
// checkout wins, falling back to the checkout root.
func (lc *Lifecycle) DocsDir(override string) string {
	if override != "" {
		return override
	}
	checkout := lc.CheckoutPath()
	for _, name := range docsDirCandidates {
		candidate := filepath.Join(checkout, name)
		if fsutil.Exists(candidate) {
			return candidate
		}
	}
	return checkout
}

// ResolveDocsDir is DocsDir with a relative override taken as relative to
// the checkout.
func (lc *Lifecycle) ResolveDocsDir(override string) string {
	if override != "" && !filepath.IsAbs(override) {
		override = filepath.Join(lc.CheckoutPath(), override)
	}
	return lc.DocsDir(override)
}

// CreateIndex writes a placeholder index.<ext> into the probed docs
// directory. See CreateIndexIn.
func (lc *Lifecycle) CreateIndex(ext string) error {
	return lc.CreateIndexIn(lc.DocsDir(""), ext)
}

// CreateIndexIn writes a placeholder index.<ext> into docsDir unless an
// index.<ext> or README.<ext> is already there. Existing files are never
// overwritten.
func (lc *Lifecycle) CreateIndexIn(docsDir, ext string) error {
	if ext == "" {
		ext = DefaultIndexExtension
	}
	index := filepath.Join(docsDir, "index."+ext)
	readme := filepath.Join(docsDir, "README."+ext)
	if fsutil.Exists(index) || fsutil.Exists(readme) {
		return nil
	}

	content := fmt.Sprintf(indexTemplate, docsDir, ext)
	f, err := os.OpenFile(index, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G302 -- docs are published
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	lc.log.Info("Created placeholder index", logfields.Path(index))
	return nil
}

// Run delegates to the bound environment.
func (lc *Lifecycle) Run(ctx context.Context, cmd environment.Command) (*environment.Result, error) {
	return lc.env.Run(ctx, cmd)
}
