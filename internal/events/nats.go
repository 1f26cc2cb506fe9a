package events

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes status events to a NATS subject
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// newNATSPublisher connects to NATS and binds the subject
func newNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Publish publishes one event
func (p *NATSPublisher) Publish(_ context.Context, data []byte) error {
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", p.subject, err)
	}
	return nil
}

// Close drains and closes the connection
func (p *NATSPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}
