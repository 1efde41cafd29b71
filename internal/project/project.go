// Package project resolves the on-disk layout of a documentation project:
// where a version's sources are checked out and where finished artifacts for
// each format are published.
package project

import (
	"fmt"
	"path/filepath"
	"regexp"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
	typePattern = regexp.MustCompile(`^[a-z0-9]+$`)
)

// Version identifies one buildable version of a project.
type Version struct {
	Slug string
}

// Project describes a documentation project rooted at Root.
//
// Layout:
//
//	<Root>/<Slug>/checkouts/<version>
//	<Root>/<Slug>/artifacts/<version>/<type>
type Project struct {
	Slug string
	Root string
}

// New returns a Project with an absolute root.
func New(slug, root string) (Project, error) {
	if err := ValidateSlug(slug); err != nil {
		return Project{}, fmt.Errorf("project slug: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return Project{}, fmt.Errorf("resolve project root: %w", err)
	}
	return Project{Slug: slug, Root: abs}, nil
}

// ValidateSlug reports whether s is usable as a path segment.
func ValidateSlug(s string) error {
	if !slugPattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, s)
	}
	return nil
}

// ValidateType reports whether typ is a valid artifact type.
func ValidateType(typ string) error {
	if !typePattern.MatchString(typ) {
		return fmt.Errorf("%w: %q", ErrInvalidType, typ)
	}
	return nil
}

// ArtifactPath returns the publish directory for one version in one format.
func (p Project) ArtifactPath(versionSlug, typ string) (string, error) {
	if err := ValidateSlug(versionSlug); err != nil {
		return "", err
	}
	if err := ValidateType(typ); err != nil {
		return "", err
	}
	return filepath.Join(p.Root, p.Slug, "artifacts", versionSlug, typ), nil
}

// CheckoutPath returns the source checkout directory for a version.
func (p Project) CheckoutPath(versionSlug string) string {
	return filepath.Join(p.Root, p.Slug, "checkouts", versionSlug)
}
