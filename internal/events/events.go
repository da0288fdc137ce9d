// Package events publishes collection changes to NATS.
// Without a NATS URL every publish is a no-op.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/codyseavey/pokemarket/internal/config"
)

// Subjects, relative to the configured prefix
const (
	SubjectCardCreated       = "cards.created"
	SubjectCardDeleted       = "cards.deleted"
	SubjectSnapshotsCaptured = "snapshots.captured"
)

// Publisher sends one event per call
type Publisher interface {
	Publish(ctx context.Context, subject string, data any) error
	Close()
}

// Event is the JSON envelope written to the wire
type Event struct {
	Subject    string    `json:"subject"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Nop drops every event
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close()                                     {}

// NATSPublisher publishes events as core NATS messages
type NATSPublisher struct {
	conn    *nats.Conn
	prefix  string
	publish func(subject string, data []byte) error
	logger  *slog.Logger
}

// New connects to NATS when cfg.NATSURL is set and returns Nop otherwise
func New(cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	if cfg.NATSURL == "" {
		return Nop{}, nil
	}
	return Connect(cfg.NATSURL, cfg.SubjectPrefix, logger)
}

// Connect dials the NATS server at url
func Connect(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "events")

	conn, err := nats.Connect(url,
		nats.Name("pokemarket"),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	logger.Info("publishing events to NATS", "url", conn.ConnectedUrl(), "prefix", prefix)

	return &NATSPublisher{
		conn:    conn,
		prefix:  prefix,
		publish: conn.Publish,
		logger:  logger,
	}, nil
}

// FullSubject prefixes subject with the configured namespace
func (p *NATSPublisher) FullSubject(subject string) string {
	prefix := strings.TrimSuffix(p.prefix, ".")
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full := p.FullSubject(subject)
	payload, err := json.Marshal(Event{Subject: full, OccurredAt: time.Now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	if err := p.publish(full, payload); err != nil {
		return fmt.Errorf("publish %s: %w", full, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection
func (p *NATSPublisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("NATS drain failed", "error", err)
		p.conn.Close()
	}
}
