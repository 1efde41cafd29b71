package backends

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"git.home.luguber.info/inful/docforge/internal/builder"
	"git.home.luguber.info/inful/docforge/internal/config"
)

// ErrUnknownBackend is returned by Lookup for an unregistered name.
var ErrUnknownBackend = errors.New("unknown backend")

type factory func(cfg *config.Config) (builder.Backend, error)

var registry = map[string]factory{
	"html": func(cfg *config.Config) (builder.Backend, error) {
		return NewMarkdown(cfg.Project.DocsDir), nil
	},
	"htmlzip": func(cfg *config.Config) (builder.Backend, error) {
		return NewHTMLZip(cfg.Project.DocsDir), nil
	},
	"hugo": func(cfg *config.Config) (builder.Backend, error) {
		return NewHugo(cfg.Project.DocsDir, cfg.Backends.Hugo.ExtraArgs...), nil
	},
	"mkdocs": func(cfg *config.Config) (builder.Backend, error) {
		return NewMkDocs(cfg.Project.DocsDir), nil
	},
	"command": func(cfg *config.Config) (builder.Backend, error) {
		return NewCommand(cfg.Project.DocsDir, cfg.Backends.Command)
	},
}

// Lookup returns the backend registered under name, configured from cfg.
func Lookup(name string, cfg *config.Config) (builder.Backend, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownBackend, name, Names())
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	return f(cfg)
}

// Names lists the registered backend names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether name has a backend.
func IsRegistered(name string) bool {
	return slices.Contains(Names(), name)
}

// buildDir is where in-process and mkdocs builds leave their output.
func buildDir(lc *builder.Lifecycle, typ string) string {
	return filepath.Join(lc.CheckoutPath(), "_build", typ)
}

// docsDir resolves the source directory, treating a relative override as
// relative to the checkout.
func docsDir(lc *builder.Lifecycle, override string) string {
	return lc.ResolveDocsDir(override)
}

func logForced(lc *builder.Lifecycle) {
	if lc.Forced() {
		lc.Logger().Debug("Building with force enabled")
	}
}
