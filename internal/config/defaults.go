package config

import "time"

const (
	DefaultRoot           = "./data"
	DefaultIndexExtension = "md"
	DefaultSubjectPrefix  = "docforge"
	DefaultDaemonInterval = 15 * time.Minute
	DefaultRetryInitial   = time.Second
	DefaultRetryMax       = 30 * time.Second
)

func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		cfg.Root = DefaultRoot
	}
	if len(cfg.Versions) == 0 {
		cfg.Versions = []Version{{Slug: "latest"}}
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"html"}
	}
	if cfg.Build.IndexExtension == "" {
		cfg.Build.IndexExtension = DefaultIndexExtension
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Notify.SubjectPrefix == "" {
		cfg.Notify.SubjectPrefix = DefaultSubjectPrefix
	}
	if cfg.Checkout.RetryBackoff == "" {
		cfg.Checkout.RetryBackoff = RetryBackoffLinear
	}
	if cfg.Checkout.RetryInitial == 0 {
		cfg.Checkout.RetryInitial = DefaultRetryInitial
	}
	if cfg.Checkout.RetryMax == 0 {
		cfg.Checkout.RetryMax = DefaultRetryMax
	}
	if cfg.Daemon.Interval == 0 {
		cfg.Daemon.Interval = DefaultDaemonInterval
	}
	if cfg.Backends.Command.Type == "" && len(cfg.Backends.Command.Args) > 0 {
		cfg.Backends.Command.Type = "pdf"
	}
}

// FindVersion returns the configured version with the given slug.
func (c *Config) FindVersion(slug string) (Version, bool) {
	for _, v := range c.Versions {
		if v.Slug == slug {
			return v, true
		}
	}
	return Version{}, false
}
