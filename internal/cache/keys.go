package cache

import (
	"fmt"
	"time"
)

// TTL classes per data kind. Expiry is always computed at write time.
const (
	NodeSetTTL   = 30 * time.Second
	NodeStatsTTL = 120 * time.Second
	AnalyticsTTL = 60 * time.Second
	GeoTTL       = 24 * time.Hour
)

// Keys builds the namespaced cache keys shared by the node manager, the
// enrichment scheduler, and the analytics/geo consumers.
type Keys struct {
	prefix string
}

// NewKeys creates a key builder with the configured namespace prefix
func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = "nodepulse"
	}
	return Keys{prefix: prefix}
}

// NodeSet is the key holding the canonical node list
func (k Keys) NodeSet() string {
	return fmt.Sprintf("%s:nodes:all", k.prefix)
}

// NodeStats is the per-node resource stats key
func (k Keys) NodeStats(publicKey string) string {
	return fmt.Sprintf("%s:nodes:stats:%s", k.prefix, publicKey)
}

// Analytics is the fleet snapshot key
func (k Keys) Analytics() string {
	return fmt.Sprintf("%s:analytics:snapshot", k.prefix)
}

// Geo is the per-IP location key
func (k Keys) Geo(ip string) string {
	return fmt.Sprintf("%s:geo:%s", k.prefix, ip)
}
