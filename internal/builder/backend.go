package builder

import (
	"context"
	"errors"

	"git.home.luguber.info/inful/docforge/internal/environment"
	"git.home.luguber.info/inful/docforge/internal/project"
)

// ErrNotImplemented is returned by a backend that does not provide a build step.
var ErrNotImplemented = errors.New("build step not implemented")

// Environment runs build commands for one project version.
type Environment interface {
	Project() project.Project
	Version() project.Version
	Run(ctx context.Context, cmd environment.Command) (*environment.Result, error)
}

// Backend is the format-specific strategy composed into a Lifecycle.
//
// Type is a constant discriminator such as "html" or "pdf" used to derive the
// artifact path. OldArtifactPath tells the lifecycle where Build deposits its
// output; it is resolved once, when the Lifecycle is constructed, and may
// point anywhere on the filesystem. Build must leave valid output there on
// success.
type Backend interface {
	Type() string
	OldArtifactPath(lc *Lifecycle) string
	Build(ctx context.Context, lc *Lifecycle) error
}

// UnimplementedBackend can be embedded by backends under construction. Its
// Build reports ErrNotImplemented.
type UnimplementedBackend struct{}

func (UnimplementedBackend) Build(context.Context, *Lifecycle) error { return ErrNotImplemented }
