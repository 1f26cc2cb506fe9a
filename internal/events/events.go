// Package events publishes node status transition events to a configurable
// backend. Publishing is strictly best-effort: a failed publish is the
// caller's to log and ignore, and no delivery guarantee is made.
package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/nodepulse/nodepulse/internal/config"
)

// Publisher publishes status events to a single configured subject
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
	Close() error
}

// NewPublisher creates a Publisher based on configuration.
// Supported backends: nats, kafka, redis, memory.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	backend := strings.ToLower(cfg.Type)
	if backend == "" {
		backend = "nats"
	}

	subject := cfg.Subject
	if subject == "" {
		subject = "nodepulse.status"
	}

	switch backend {
	case "nats":
		return newNATSPublisher(cfg.URL, subject)

	case "kafka":
		return newKafkaPublisher(cfg.Brokers, subject)

	case "redis":
		return newRedisPublisher(cfg.URL, cfg.Password, cfg.RedisDB, subject)

	case "memory":
		return NewMemoryPublisher(subject), nil

	default:
		return nil, fmt.Errorf("unsupported events backend: %s (supported: nats, kafka, redis, memory)", backend)
	}
}
