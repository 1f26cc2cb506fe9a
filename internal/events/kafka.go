package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes status events to a Kafka topic
type KafkaPublisher struct {
	writer *kafka.Writer
}

// newKafkaPublisher creates a writer for the status topic
func newKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
	}

	return &KafkaPublisher{writer: writer}, nil
}

// Publish publishes one event
func (p *KafkaPublisher) Publish(ctx context.Context, data []byte) error {
	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: data}); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.writer.Topic, err)
	}
	return nil
}

// Close closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
