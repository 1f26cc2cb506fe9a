// Package analytics derives a read-only fleet snapshot from the canonical
// node set: counts, storage totals, and version spread. The arithmetic is a
// single pass; the value of this package is the 60s snapshot cache in front
// of it.
package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nodepulse/nodepulse/internal/cache"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
)

// NodeSource provides the node set the snapshot is derived from
type NodeSource interface {
	GetAllNodes(ctx context.Context) []models.Node
	OnlineThreshold() time.Duration
}

// Service computes and caches the fleet snapshot
type Service struct {
	cache  cache.Store
	keys   cache.Keys
	source NodeSource
	logger *logging.Logger
	now    func() time.Time
}

// NewService creates an analytics service
func NewService(store cache.Store, keys cache.Keys, source NodeSource, logger *logging.Logger) *Service {
	return &Service{
		cache:  store,
		keys:   keys,
		source: source,
		logger: logger.With("component", "analytics"),
		now:    time.Now,
	}
}

// Snapshot returns the fleet snapshot, serving the cached copy when fresh
func (s *Service) Snapshot(ctx context.Context) models.AnalyticsResponse {
	if raw, ok := s.cache.Get(ctx, s.keys.Analytics()); ok {
		var snap models.AnalyticsResponse
		if err := json.Unmarshal([]byte(raw), &snap); err == nil {
			return snap
		}
	}

	snap := s.compute(ctx)

	if data, err := json.Marshal(snap); err == nil {
		_ = s.cache.Set(ctx, s.keys.Analytics(), string(data), cache.AnalyticsTTL)
	}

	return snap
}

// compute folds the node set into the snapshot
func (s *Service) compute(ctx context.Context) models.AnalyticsResponse {
	nodes := s.source.GetAllNodes(ctx)
	now := s.now()
	threshold := s.source.OnlineThreshold()

	snap := models.AnalyticsResponse{
		TotalNodes:  len(nodes),
		Versions:    make(map[string]int),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}

	for _, n := range nodes {
		if n.IsOnline(now, threshold) {
			snap.OnlineNodes++
		}
		snap.StorageUsed += n.StorageUsed
		snap.StorageCapacity += n.StorageCapacity
		if n.Version != "" {
			snap.Versions[n.Version]++
		}
	}

	if snap.TotalNodes > 0 {
		snap.OnlinePercent = 100 * float64(snap.OnlineNodes) / float64(snap.TotalNodes)
	}
	if snap.StorageCapacity > 0 {
		snap.StoragePercent = 100 * float64(snap.StorageUsed) / float64(snap.StorageCapacity)
	}

	return snap
}
