package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nodepulse/nodepulse/internal/cache"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
)

// NodeProvider is the node manager surface the service consumes
type NodeProvider interface {
	GetAllNodes(ctx context.Context) []models.Node
	GetByID(ctx context.Context, publicKey string) (*models.Node, bool)
	Refresh(ctx context.Context) []models.Node
	OnlineThreshold() time.Duration
}

// StatsFetcher queries one node directly for its resource stats
type StatsFetcher interface {
	FetchStats(ctx context.Context, address string) (*models.ResourceStats, error)
}

// Locator resolves an IP to a location, or nil when none is known
type Locator interface {
	Locate(ctx context.Context, ip string) *models.GeoInfo
}

// Snapshotter provides the cached fleet snapshot
type Snapshotter interface {
	Snapshot(ctx context.Context) models.AnalyticsResponse
}

// NodeService handles node read-path business logic
type NodeService struct {
	provider     NodeProvider
	fetcher      StatsFetcher
	locator      Locator
	snapshotter  Snapshotter
	cache        cache.Store
	keys         cache.Keys
	logger       *logging.Logger
	fetchTimeout time.Duration
	now          func() time.Time
}

// NewNodeService creates a NodeService
func NewNodeService(
	provider NodeProvider,
	fetcher StatsFetcher,
	locator Locator,
	snapshotter Snapshotter,
	store cache.Store,
	keys cache.Keys,
	fetchTimeout time.Duration,
	logger *logging.Logger,
) *NodeService {
	return &NodeService{
		provider:     provider,
		fetcher:      fetcher,
		locator:      locator,
		snapshotter:  snapshotter,
		cache:        store,
		keys:         keys,
		logger:       logger.With("component", "services.node"),
		fetchTimeout: fetchTimeout,
		now:          time.Now,
	}
}

// GetNodes returns the enriched node listing with derived online status
func (s *NodeService) GetNodes(ctx context.Context) models.NodeListResponse {
	nodes := s.provider.GetAllNodes(ctx)
	now := s.now()

	views := make([]models.NodeView, len(nodes))
	for i, n := range nodes {
		views[i] = s.toView(n, now)
	}

	return models.NodeListResponse{Nodes: views, Count: len(views)}
}

// GetNode returns a single node by identity
func (s *NodeService) GetNode(ctx context.Context, publicKey string) (*models.NodeView, *ServiceError) {
	n, ok := s.provider.GetByID(ctx, publicKey)
	if !ok {
		return nil, NewServiceError(CodeNodeNotFound, "node not found")
	}

	view := s.toView(*n, s.now())
	return &view, nil
}

// GetNodeStats returns per-node resource stats. The warm cache is consulted
// first; a live fetch is attempted only for online nodes, so an offline
// node yields "not found" without any network call.
func (s *NodeService) GetNodeStats(ctx context.Context, publicKey string) (*models.NodeStatsResponse, *ServiceError) {
	n, ok := s.provider.GetByID(ctx, publicKey)
	if !ok {
		return nil, NewServiceError(CodeNodeNotFound, "node not found")
	}

	if raw, hit := s.cache.Get(ctx, s.keys.NodeStats(publicKey)); hit {
		var stats models.ResourceStats
		if err := json.Unmarshal([]byte(raw), &stats); err == nil {
			return &models.NodeStatsResponse{PublicKey: publicKey, Stats: &stats}, nil
		}
	}

	if !n.IsOnline(s.now(), s.provider.OnlineThreshold()) {
		return nil, NewServiceError(CodeStatsNotFound, "no stats available for offline node")
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	stats, err := s.fetcher.FetchStats(fetchCtx, n.Address())
	if err != nil {
		s.logger.Debug("Live stats fetch failed", "public_key", publicKey, "error", err)
		return nil, NewServiceError(CodeStatsNotFound, "node stats unavailable")
	}

	if data, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, s.keys.NodeStats(publicKey), string(data), cache.NodeStatsTTL)
	}

	return &models.NodeStatsResponse{PublicKey: publicKey, Stats: stats}, nil
}

// GetMapNodes joins the node set with cached geo locations
func (s *NodeService) GetMapNodes(ctx context.Context) models.MapNodesResponse {
	nodes := s.provider.GetAllNodes(ctx)
	now := s.now()

	out := make([]models.MapNode, 0, len(nodes))
	for _, n := range nodes {
		m := models.MapNode{
			PublicKey: n.PublicKey,
			Host:      n.Host,
			Online:    n.IsOnline(now, s.provider.OnlineThreshold()),
		}
		if s.locator != nil {
			m.Location = s.locator.Locate(ctx, n.Host)
		}
		out = append(out, m)
	}

	return models.MapNodesResponse{Nodes: out, Count: len(out)}
}

// GetAnalytics returns the cached fleet snapshot
func (s *NodeService) GetAnalytics(ctx context.Context) models.AnalyticsResponse {
	return s.snapshotter.Snapshot(ctx)
}

// Refresh invalidates the node-set cache and re-runs discovery
func (s *NodeService) Refresh(ctx context.Context) models.RefreshResponse {
	nodes := s.provider.Refresh(ctx)
	return models.RefreshResponse{Refreshed: true, NodeCount: len(nodes)}
}

// toView derives the API view of a node, recomputing online status at
// read time so it stays stable for a given timestamp and "now".
func (s *NodeService) toView(n models.Node, now time.Time) models.NodeView {
	lastSeen := ""
	if !n.LastSeen.IsZero() {
		lastSeen = n.LastSeen.UTC().Format(time.RFC3339)
	}

	return models.NodeView{
		PublicKey:       n.PublicKey,
		Host:            n.Host,
		Port:            n.Port,
		Version:         n.Version,
		Online:          n.IsOnline(now, s.provider.OnlineThreshold()),
		StorageUsed:     n.StorageUsed,
		StorageCapacity: n.StorageCapacity,
		LastSeen:        lastSeen,
		Stats:           n.Stats,
	}
}
