package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNode_IsOnline(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	threshold := 300 * time.Second

	tests := []struct {
		name     string
		lastSeen time.Time
		online   bool
	}{
		{
			name:     "seen just now",
			lastSeen: now,
			online:   true,
		},
		{
			name:     "seen 299s ago",
			lastSeen: now.Add(-299 * time.Second),
			online:   true,
		},
		{
			name:     "seen exactly at threshold",
			lastSeen: now.Add(-300 * time.Second),
			online:   false,
		},
		{
			name:     "seen 301s ago",
			lastSeen: now.Add(-301 * time.Second),
			online:   false,
		},
		{
			name:     "never seen",
			lastSeen: time.Time{},
			online:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Node{PublicKey: "pk", LastSeen: tt.lastSeen}
			assert.Equal(t, tt.online, n.IsOnline(now, threshold))
		})
	}
}

func TestNode_Address(t *testing.T) {
	n := Node{Host: "10.0.0.5", Port: 9980}
	assert.Equal(t, "10.0.0.5:9980", n.Address())

	n = Node{Host: "node.example.com"}
	assert.Equal(t, "node.example.com", n.Address())
}
