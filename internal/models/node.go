package models

import (
	"net"
	"strconv"
	"time"
)

// Node represents a discovered network participant. PublicKey is the only
// stable identity; every other field is re-derived on each discovery run.
type Node struct {
	PublicKey       string         `json:"public_key"`
	Host            string         `json:"host"`
	Port            int            `json:"port,omitempty"`
	Version         string         `json:"version,omitempty"`
	StorageUsed     int64          `json:"storage_used"`     // bytes
	StorageCapacity int64          `json:"storage_capacity"` // bytes
	LastSeen        time.Time      `json:"last_seen"`
	Stats           *ResourceStats `json:"stats,omitempty"` // populated asynchronously by enrichment
}

// ResourceStats holds per-node resource usage fetched directly from the node.
type ResourceStats struct {
	MemoryUsed  int64     `json:"memory_used"`  // bytes
	MemoryTotal int64     `json:"memory_total"` // bytes
	FetchedAt   time.Time `json:"fetched_at"`
}

// IsOnline reports whether the node was observed within threshold of now.
// The comparison is strict: a node last seen exactly threshold ago is offline.
func (n *Node) IsOnline(now time.Time, threshold time.Duration) bool {
	return now.Sub(n.LastSeen) < threshold
}

// Address returns the node's dialable host:port, or just the host when no
// port was gossiped.
func (n *Node) Address() string {
	if n.Port > 0 {
		return net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
	}
	return n.Host
}

// StatusEvent describes an online/offline transition for a node, published
// best-effort to the configured events backend.
type StatusEvent struct {
	PublicKey  string    `json:"public_key"`
	Online     bool      `json:"online"`
	ObservedAt time.Time `json:"observed_at"`
}
