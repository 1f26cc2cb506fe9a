// Package enrichment keeps expensive per-node resource stats warm in the
// cache. A recurring background run pulls the canonical node set, filters
// to online nodes, and queries each node directly in paced batches, so
// steady-state reads almost never trigger a live fetch.
package enrichment

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nodepulse/nodepulse/internal/cache"
	"github.com/nodepulse/nodepulse/internal/config"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
)

// NodeSource provides the current node set and the online window
type NodeSource interface {
	GetAllNodes(ctx context.Context) []models.Node
	OnlineThreshold() time.Duration
}

// StatsFetcher queries one node directly for its resource stats
type StatsFetcher interface {
	FetchStats(ctx context.Context, address string) (*models.ResourceStats, error)
}

// Scheduler runs the recurring enrichment pass
type Scheduler struct {
	cfg     config.EnrichmentConfig
	source  NodeSource
	fetcher StatsFetcher
	cache   cache.Store
	keys    cache.Keys
	logger  *logging.Logger

	running atomic.Bool // the run-lock: at most one pass at a time
	runs    atomic.Int64
	stopCh  chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewScheduler creates an enrichment scheduler
func NewScheduler(
	cfg config.EnrichmentConfig,
	source NodeSource,
	fetcher StatsFetcher,
	store cache.Store,
	keys cache.Keys,
	logger *logging.Logger,
) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		source:  source,
		fetcher: fetcher,
		cache:   store,
		keys:    keys,
		logger:  logger.With("component", "enrichment"),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
}

// Start launches the background loop. It waits on ready first, so the
// scheduler only begins once the cache's remote init attempt has finished
// (whether or not it succeeded).
func (s *Scheduler) Start(ctx context.Context, ready <-chan struct{}) {
	if !s.cfg.Enabled {
		s.logger.Info("Enrichment scheduler is disabled")
		return
	}

	s.logger.Info("Starting enrichment scheduler",
		"interval", s.cfg.Interval,
		"batch_size", s.cfg.BatchSize,
		"batch_pause", s.cfg.BatchPause)

	s.wg.Add(1)
	go s.run(ctx, ready)
}

// Stop stops the loop. A run in progress is abandoned at its next
// checkpoint; cache writes are idempotent, so an interrupted run simply
// leaves fewer entries warm.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("Enrichment scheduler stopped")
}

// Runs returns the number of completed enrichment passes
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// run is the scheduler loop
func (s *Scheduler) run(ctx context.Context, ready <-chan struct{}) {
	defer s.wg.Done()

	select {
	case <-ready:
	case <-s.stopCh:
		return
	case <-ctx.Done():
		return
	}

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce performs a single enrichment pass. When a previous pass is still
// in progress the tick is skipped entirely, not queued; the return value
// reports whether the pass ran.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("Previous enrichment run still in progress, skipping tick")
		return false
	}
	defer s.running.Store(false)

	start := s.now()

	all := s.source.GetAllNodes(ctx)

	online := make([]models.Node, 0, len(all))
	for _, n := range all {
		if n.IsOnline(start, s.source.OnlineThreshold()) {
			online = append(online, n)
		}
	}

	if len(online) == 0 {
		s.logger.Debug("No online nodes to enrich", "total", len(all))
		s.runs.Add(1)
		return true
	}

	fetched := 0
	failed := 0

	for i := 0; i < len(online); i += s.cfg.BatchSize {
		end := i + s.cfg.BatchSize
		if end > len(online) {
			end = len(online)
		}

		for _, n := range online[i:end] {
			select {
			case <-s.stopCh:
				return true
			case <-ctx.Done():
				return true
			default:
			}

			if s.enrichNode(ctx, n) {
				fetched++
			} else {
				failed++
			}
		}

		// Pace batches so a large fleet is never hit all at once.
		if end < len(online) {
			select {
			case <-time.After(s.cfg.BatchPause):
			case <-s.stopCh:
				return true
			case <-ctx.Done():
				return true
			}
		}
	}

	s.runs.Add(1)
	s.logger.Info("Enrichment run completed",
		"online", len(online),
		"fetched", fetched,
		"failed", failed,
		"duration", time.Since(start))

	return true
}

// enrichNode fetches one node's stats and caches them. Any failure is a
// normal outcome for that node and never aborts the batch.
func (s *Scheduler) enrichNode(ctx context.Context, n models.Node) bool {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	stats, err := s.fetcher.FetchStats(fetchCtx, n.Address())
	if err != nil {
		s.logger.Debug("Stats fetch failed", "public_key", n.PublicKey, "address", n.Address(), "error", err)
		return false
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return false
	}

	_ = s.cache.Set(ctx, s.keys.NodeStats(n.PublicKey), string(data), cache.NodeStatsTTL)

	return true
}
