package events

import (
	"context"
	"sync"
)

// MemoryPublisher collects events in memory. Used for tests and for
// running without an external broker.
type MemoryPublisher struct {
	mu       sync.Mutex
	subject  string
	messages [][]byte
	closed   bool
}

// NewMemoryPublisher creates an in-memory publisher
func NewMemoryPublisher(subject string) *MemoryPublisher {
	return &MemoryPublisher{subject: subject}
}

// Publish records one event
func (p *MemoryPublisher) Publish(_ context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	// Copy to avoid aliasing the caller's buffer
	cp := make([]byte, len(data))
	copy(cp, data)
	p.messages = append(p.messages, cp)

	return nil
}

// Messages returns a snapshot of everything published so far
func (p *MemoryPublisher) Messages() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([][]byte, len(p.messages))
	copy(out, p.messages)
	return out
}

// Close marks the publisher closed; further publishes are dropped
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	return nil
}
