// Package nodes owns the single read path for the canonical node set,
// layering the short-TTL node-set cache over the discovery engine and
// overlaying warm per-node enrichment entries on every read.
package nodes

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nodepulse/nodepulse/internal/cache"
	"github.com/nodepulse/nodepulse/internal/discovery"
	"github.com/nodepulse/nodepulse/internal/events"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
)

// Discoverer is the slice of the discovery engine the manager consumes
type Discoverer interface {
	Discover(ctx context.Context) []models.Node
}

// Manager orchestrates discovery results into and out of the tiered cache
type Manager struct {
	cache     cache.Store
	keys      cache.Keys
	engine    Discoverer
	publisher events.Publisher // may be nil
	logger    *logging.Logger
	threshold time.Duration

	mu         sync.Mutex
	lastOnline map[string]bool // last observed online status, for transition events
	now        func() time.Time
}

// NewManager creates a node cache manager
func NewManager(
	store cache.Store,
	keys cache.Keys,
	engine Discoverer,
	publisher events.Publisher,
	onlineThreshold time.Duration,
	logger *logging.Logger,
) *Manager {
	return &Manager{
		cache:      store,
		keys:       keys,
		engine:     engine,
		publisher:  publisher,
		logger:     logger.With("component", "nodes"),
		threshold:  onlineThreshold,
		lastOnline: make(map[string]bool),
		now:        time.Now,
	}
}

// OnlineThreshold returns the configured online window
func (m *Manager) OnlineThreshold() time.Duration {
	return m.threshold
}

// GetAllNodes returns the canonical node set. A cache hit is never returned
// without the enrichment merge: per-node stats keys carry a longer TTL than
// the node-set key and may be fresher.
func (m *Manager) GetAllNodes(ctx context.Context) []models.Node {
	if raw, ok := m.cache.Get(ctx, m.keys.NodeSet()); ok {
		var nodes []models.Node
		if err := json.Unmarshal([]byte(raw), &nodes); err == nil {
			return m.mergeEnrichment(ctx, nodes)
		}
		// A corrupt entry behaves as a miss.
		m.logger.Warn("Discarding undecodable node-set cache entry")
	}

	return m.refresh(ctx)
}

// GetByID is a pure lookup over GetAllNodes, keeping identity lookups
// consistent with the bulk listing.
func (m *Manager) GetByID(ctx context.Context, publicKey string) (*models.Node, bool) {
	for _, n := range m.GetAllNodes(ctx) {
		if n.PublicKey == publicKey {
			node := n
			return &node, true
		}
	}
	return nil, false
}

// Refresh invalidates the node-set cache entry and re-runs discovery.
// Used by maintenance paths only, never by steady-state reads.
func (m *Manager) Refresh(ctx context.Context) []models.Node {
	_ = m.cache.Delete(ctx, m.keys.NodeSet())
	return m.refresh(ctx)
}

// refresh runs the cache-miss path: discover, dedupe, cache, merge
func (m *Manager) refresh(ctx context.Context) []models.Node {
	nodes := m.engine.Discover(ctx)

	// Defense in depth: the engine already deduplicates.
	nodes = discovery.Dedupe(nodes)

	if data, err := json.Marshal(nodes); err == nil {
		// An empty set is a valid, cacheable outcome.
		_ = m.cache.Set(ctx, m.keys.NodeSet(), string(data), cache.NodeSetTTL)
	}

	m.publishTransitions(ctx, nodes)

	m.logger.Debug("Node set refreshed", "nodes", len(nodes))

	return m.mergeEnrichment(ctx, nodes)
}

// mergeEnrichment overlays warm per-node stats cache entries. It only adds
// the enrichment-owned stats field; discovery-derived fields are untouched.
func (m *Manager) mergeEnrichment(ctx context.Context, nodes []models.Node) []models.Node {
	for i := range nodes {
		raw, ok := m.cache.Get(ctx, m.keys.NodeStats(nodes[i].PublicKey))
		if !ok {
			continue
		}

		var stats models.ResourceStats
		if err := json.Unmarshal([]byte(raw), &stats); err != nil {
			continue
		}

		nodes[i].Stats = &stats
	}

	return nodes
}

// publishTransitions emits best-effort online/offline events for nodes
// whose derived status changed since the previous discovery run.
func (m *Manager) publishTransitions(ctx context.Context, nodes []models.Node) {
	if m.publisher == nil {
		return
	}

	now := m.now()

	m.mu.Lock()
	var changed []models.StatusEvent
	for _, n := range nodes {
		online := n.IsOnline(now, m.threshold)
		prev, seen := m.lastOnline[n.PublicKey]
		if !seen || prev != online {
			changed = append(changed, models.StatusEvent{
				PublicKey:  n.PublicKey,
				Online:     online,
				ObservedAt: now,
			})
		}
		m.lastOnline[n.PublicKey] = online
	}
	m.mu.Unlock()

	for _, ev := range changed {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := m.publisher.Publish(ctx, data); err != nil {
			m.logger.Debug("Status event publish failed", "public_key", ev.PublicKey, "error", err)
		}
	}
}
