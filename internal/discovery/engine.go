// Package discovery turns a noisy gossip response into a canonical node set:
// normalize each raw record, tolerate per-record failures, walk the fallback
// endpoint chain, and deduplicate by identity.
package discovery

import (
	"context"
	"time"

	"github.com/nodepulse/nodepulse/internal/config"
	"github.com/nodepulse/nodepulse/internal/gossip"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
)

// Engine discovers the current node set from the gossip network
type Engine struct {
	client gossip.Client
	cfg    config.DiscoveryConfig
	logger *logging.Logger
}

// NewEngine creates a discovery engine
func NewEngine(client gossip.Client, cfg config.DiscoveryConfig, logger *logging.Logger) *Engine {
	return &Engine{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "discovery"),
	}
}

// Discover returns the canonical, deduplicated node list. Partial failures
// of individual records or endpoints never surface as errors; total source
// exhaustion yields an empty, still-cacheable slice.
func (e *Engine) Discover(ctx context.Context) []models.Node {
	nodes := e.queryPrimary(ctx)

	if len(nodes) == 0 {
		nodes = e.queryFallbacks(ctx)
	}

	return Dedupe(nodes)
}

// queryPrimary tries the primary endpoint, first for the rich listing with
// embedded stats, then for the reduced listing.
func (e *Engine) queryPrimary(ctx context.Context) []models.Node {
	raw, err := e.client.ListNodes(ctx, e.cfg.PrimaryEndpoint, true)
	if err != nil {
		e.logger.Debug("Rich listing failed, retrying without stats",
			"endpoint", e.cfg.PrimaryEndpoint, "error", err)

		raw, err = e.client.ListNodes(ctx, e.cfg.PrimaryEndpoint, false)
		if err != nil {
			e.logger.Warn("Primary discovery endpoint failed",
				"endpoint", e.cfg.PrimaryEndpoint, "error", err)
			return nil
		}
	}

	return e.normalizeBatch(raw)
}

// queryFallbacks walks the ordered fallback list, stopping at the first
// endpoint that yields at least one usable node.
func (e *Engine) queryFallbacks(ctx context.Context) []models.Node {
	for _, endpoint := range e.cfg.FallbackEndpoints {
		raw, err := e.client.ListNodes(ctx, endpoint, false)
		if err != nil {
			e.logger.Debug("Fallback endpoint failed", "endpoint", endpoint, "error", err)
			continue
		}

		nodes := e.normalizeBatch(raw)
		if len(nodes) > 0 {
			e.logger.Info("Discovery served by fallback endpoint",
				"endpoint", endpoint, "nodes", len(nodes))
			return nodes
		}
	}

	e.logger.Warn("All discovery endpoints exhausted, returning empty node set")
	return nil
}

// normalizeBatch converts raw records to nodes, dropping unusable ones
func (e *Engine) normalizeBatch(raw []gossip.RawNode) []models.Node {
	nodes := make([]models.Node, 0, len(raw))
	dropped := 0

	for _, r := range raw {
		node, ok := normalize(r)
		if !ok {
			dropped++
			continue
		}
		nodes = append(nodes, node)
	}

	if dropped > 0 {
		e.logger.Debug("Dropped malformed discovery records", "dropped", dropped, "usable", len(nodes))
	}

	return nodes
}

// normalize converts one raw record into a Node. A record without an
// identity is unusable; everything else is taken as-is.
func normalize(r gossip.RawNode) (models.Node, bool) {
	if r.PublicKey == "" {
		return models.Node{}, false
	}

	node := models.Node{
		PublicKey:       r.PublicKey,
		Host:            r.Host,
		Port:            r.Port,
		Version:         r.Version,
		StorageUsed:     r.StorageUsed,
		StorageCapacity: r.StorageCapacity,
	}

	if r.LastSeen > 0 {
		node.LastSeen = time.Unix(r.LastSeen, 0).UTC()
	}

	if r.Stats != nil {
		node.Stats = &models.ResourceStats{
			MemoryUsed:  r.Stats.MemoryUsed,
			MemoryTotal: r.Stats.MemoryTotal,
			FetchedAt:   node.LastSeen,
		}
	}

	return node, true
}

// Dedupe removes duplicate identities, keeping the first occurrence and
// preserving first-appearance order. Deterministic for a fixed input order.
func Dedupe(nodes []models.Node) []models.Node {
	if len(nodes) == 0 {
		return []models.Node{}
	}

	seen := make(map[string]struct{}, len(nodes))
	out := make([]models.Node, 0, len(nodes))

	for _, n := range nodes {
		if _, dup := seen[n.PublicKey]; dup {
			continue
		}
		seen[n.PublicKey] = struct{}{}
		out = append(out, n)
	}

	return out
}
