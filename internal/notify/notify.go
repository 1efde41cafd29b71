// Package notify announces freshly published artifacts to other systems.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docforge/internal/logfields"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "docforge"

// ArtifactPublished is emitted after a lifecycle moved an artifact into place.
type ArtifactPublished struct {
	BuildID   string    `json:"build_id"`
	Project   string    `json:"project"`
	Version   string    `json:"version"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	Bytes     int64     `json:"bytes"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers ArtifactPublished events.
type Publisher interface {
	Publish(ctx context.Context, ev ArtifactPublished) error
	Close() error
}

// NoopPublisher drops every event (default when no NATS URL is configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ArtifactPublished) error { return nil }
func (NoopPublisher) Close() error { return nil }

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// NATSPublisher publishes events as JSON over core NATS.
type NATSPublisher struct {
	nc     conn
	prefix string
}

// NewNATSPublisher connects to url. An empty prefix falls back to
// DefaultSubjectPrefix.
func NewNATSPublisher(url, prefix string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("docforge"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS publisher initialized", logfields.URL(url), slog.String("subject_prefix", prefix))
	return newNATSPublisher(nc, prefix), nil
}

func newNATSPublisher(nc conn, prefix string) *NATSPublisher {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// Subject returns the subject an event is published on:
// <prefix>.<project>.<version>.<format>.
func (p *NATSPublisher) Subject(ev ArtifactPublished) string {
	return strings.Join([]string{p.prefix, token(ev.Project), token(ev.Version), token(ev.Format)}, ".")
}

// Publish sends ev and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, ev ArtifactPublished) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.Subject(ev)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}

	slog.Debug("Published artifact event",
		slog.String("subject", subject),
		logfields.Project(ev.Project),
		logfields.Version(ev.Version),
		logfields.Format(ev.Format))
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// token makes s safe to use as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, s)
}
