package config

import (
	"fmt"
	"slices"

	dferrors "git.home.luguber.info/inful/docforge/internal/errors"
	"git.home.luguber.info/inful/docforge/internal/project"
)

// KnownFormats lists the backend names accepted in formats.
var KnownFormats = []string{"html", "htmlzip", "hugo", "mkdocs", "command"}

// Validate checks the configuration for values that would fail later in a build.
func (c *Config) Validate() error {
	if c.Project.Slug == "" {
		return dferrors.ValidationFailed("project.slug", "required")
	}
	if err := project.ValidateSlug(c.Project.Slug); err != nil {
		return dferrors.ValidationFailed("project.slug", err.Error())
	}

	seen := make(map[string]bool, len(c.Versions))
	for i, v := range c.Versions {
		field := fmt.Sprintf("versions[%d].slug", i)
		if err := project.ValidateSlug(v.Slug); err != nil {
			return dferrors.ValidationFailed(field, err.Error())
		}
		if seen[v.Slug] {
			return dferrors.ValidationFailed(field, "duplicate version "+v.Slug)
		}
		seen[v.Slug] = true
	}

	for i, f := range c.Formats {
		if !slices.Contains(KnownFormats, f) {
			return dferrors.ValidationFailed(fmt.Sprintf("formats[%d]", i), "unknown format "+f)
		}
		if f == "command" && len(c.Backends.Command.Args) == 0 {
			return dferrors.ValidationFailed("backends.command.args", "required when the command format is enabled")
		}
	}

	if c.Checkout.Depth < 0 {
		return dferrors.ValidationFailed("checkout.depth", "cannot be negative")
	}
	if c.Checkout.MaxRetries < 0 {
		return dferrors.ValidationFailed("checkout.max_retries", "cannot be negative")
	}
	switch c.Checkout.RetryBackoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
	default:
		return dferrors.ValidationFailed("checkout.retry_backoff", "must be fixed, linear or exponential")
	}

	if c.Daemon.Interval < 0 {
		return dferrors.ValidationFailed("daemon.interval", "must be positive")
	}
	return nil
}
