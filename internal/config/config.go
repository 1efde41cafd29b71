package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	dferrors "git.home.luguber.info/inful/docforge/internal/errors"
)

// Config represents the application configuration
type Config struct {
	Root     string         `yaml:"root"`
	Project  ProjectConfig  `yaml:"project"`
	Versions []Version      `yaml:"versions"`
	Formats  []string       `yaml:"formats"`
	Checkout CheckoutConfig `yaml:"checkout,omitempty"`
	Backends BackendsConfig `yaml:"backends,omitempty"`
	Build    BuildConfig    `yaml:"build"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Notify   NotifyConfig   `yaml:"notify,omitempty"`
	Daemon   DaemonConfig   `yaml:"daemon,omitempty"`
}

// ProjectConfig identifies the project and where its sources come from.
type ProjectConfig struct {
	Slug       string `yaml:"slug"`
	Repository string `yaml:"repository,omitempty"` // empty: checkouts are managed externally
	DocsDir    string `yaml:"docs_dir,omitempty"`   // overrides docs directory probing
}

// Version is one buildable version and the git ref it is checked out from.
type Version struct {
	Slug string `yaml:"slug"`
	Ref  string `yaml:"ref,omitempty"`
}

// RetryBackoffMode selects how the delay between retries grows.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

// CheckoutConfig controls how versions are fetched from project.repository.
type CheckoutConfig struct {
	Depth        int              `yaml:"depth,omitempty"` // shallow clone depth; 0 = full history
	MaxRetries   int              `yaml:"max_retries,omitempty"`
	RetryBackoff RetryBackoffMode `yaml:"retry_backoff,omitempty"`
	RetryInitial time.Duration    `yaml:"retry_initial,omitempty"`
	RetryMax     time.Duration    `yaml:"retry_max,omitempty"`
}

// BackendsConfig holds per-backend settings.
type BackendsConfig struct {
	Command CommandBackendConfig `yaml:"command,omitempty"`
	Hugo    HugoBackendConfig    `yaml:"hugo,omitempty"`
}

// CommandBackendConfig configures the generic external-command backend.
type CommandBackendConfig struct {
	Type   string   `yaml:"type,omitempty"`   // artifact type, e.g. "pdf"
	Args   []string `yaml:"args,omitempty"`   // command line, run in the docs dir
	Output string   `yaml:"output,omitempty"` // output directory relative to the checkout
}

// HugoBackendConfig configures the hugo backend.
type HugoBackendConfig struct {
	ExtraArgs []string `yaml:"extra_args,omitempty"`
}

// BuildConfig controls which optional lifecycle steps run.
type BuildConfig struct {
	Force          bool   `yaml:"force"`
	Clean          bool   `yaml:"clean"`
	CreateIndex    bool   `yaml:"create_index"`
	IndexExtension string `yaml:"index_extension,omitempty"`
}

// LoggingConfig selects log level and output format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// MetricsConfig controls metrics export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // Prometheus textfile collector output
}

// HistoryConfig controls the build history database.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"` // SQLite file; empty disables history
}

// NotifyConfig controls artifact publish notifications.
type NotifyConfig struct {
	NATSURL       string `yaml:"nats_url,omitempty"` // empty disables notifications
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// DaemonConfig controls periodic rebuilds.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just note it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, dferrors.ConfigNotFound(configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, configPath)
}

// Parse decodes configuration bytes, expanding ${VAR} references and applying
// defaults. source is used in error messages only.
func Parse(data []byte, source string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, dferrors.ConfigInvalid(source, err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// exampleConfig is written by Init.
const exampleConfig = `# docforge configuration
root: ./data

project:
  slug: my-docs
  repository: https://github.com/example/my-docs.git
  # docs_dir: manual

versions:
  - slug: latest
    ref: main

checkout:
  depth: 0
  max_retries: 2
  retry_backoff: linear
  retry_initial: 1s
  retry_max: 30s

# html, htmlzip, hugo, mkdocs, command
formats: [html, htmlzip]

build:
  force: false
  clean: true
  create_index: true
  index_extension: md

logging:
  level: info
  format: text

history:
  path: ./data/history.db

# metrics:
#   textfile: ./data/docforge.prom
# notify:
#   nats_url: nats://127.0.0.1:4222
#   subject_prefix: docforge

daemon:
  interval: 15m
`

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	// #nosec G306 -- example config holds no secrets
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
