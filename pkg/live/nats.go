package live

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vango-dev/scenes/pkg/dashboard"
)

// publisher is the part of *nats.Conn the NATS publisher uses.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes every dashboard snapshot as JSON on a subject.
type NATSPublisher struct {
	conn    *nats.Conn
	pub     publisher
	subject string
	logger  *slog.Logger
}

// DialNATS connects to url and returns a publisher for subject.
func DialNATS(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("scenes"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("live: connect to NATS: %w", err)
	}

	p := newNATSPublisher(conn, subject, logger)
	p.conn = conn
	p.logger.Info("publishing snapshots to NATS", "url", url)
	return p, nil
}

func newNATSPublisher(pub publisher, subject string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{
		pub:     pub,
		subject: subject,
		logger:  logger.With("component", "nats", "subject", subject),
	}
}

// Publish sends snap. Failures are logged, not returned, so it can be
// registered directly as a dashboard listener.
func (p *NATSPublisher) Publish(snap dashboard.Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		p.logger.Error("cannot encode snapshot", "error", err)
		return
	}
	if err := p.pub.Publish(p.subject, data); err != nil {
		p.logger.Error("publish failed", "error", err)
	}
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
