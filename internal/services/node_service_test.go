package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nodepulse/nodepulse/internal/cache"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	nodes []models.Node
}

func (f *fakeProvider) GetAllNodes(context.Context) []models.Node { return f.nodes }

func (f *fakeProvider) GetByID(_ context.Context, key string) (*models.Node, bool) {
	for _, n := range f.nodes {
		if n.PublicKey == key {
			node := n
			return &node, true
		}
	}
	return nil, false
}

func (f *fakeProvider) Refresh(ctx context.Context) []models.Node { return f.nodes }
func (f *fakeProvider) OnlineThreshold() time.Duration            { return 300 * time.Second }

type fakeStatsFetcher struct {
	stats *models.ResourceStats
	err   error
	calls atomic.Int64
}

func (f *fakeStatsFetcher) FetchStats(context.Context, string) (*models.ResourceStats, error) {
	f.calls.Add(1)
	return f.stats, f.err
}

type fakeSnapshotter struct{}

func (fakeSnapshotter) Snapshot(context.Context) models.AnalyticsResponse {
	return models.AnalyticsResponse{TotalNodes: 1}
}

func newTestService(p *fakeProvider, f *fakeStatsFetcher, store cache.Store) *NodeService {
	return NewNodeService(p, f, nil, fakeSnapshotter{}, store, cache.NewKeys("test"), time.Second, logging.Nop())
}

func TestGetNodes_DerivesOnlineStatus(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	p := &fakeProvider{nodes: []models.Node{
		{PublicKey: "up", Host: "10.0.0.1", LastSeen: time.Now()},
		{PublicKey: "down", Host: "10.0.0.2", LastSeen: time.Now().Add(-time.Hour)},
	}}

	s := newTestService(p, &fakeStatsFetcher{}, store)
	resp := s.GetNodes(context.Background())

	require.Equal(t, 2, resp.Count)
	assert.True(t, resp.Nodes[0].Online)
	assert.False(t, resp.Nodes[1].Online)
}

func TestGetNode_NotFound(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	s := newTestService(&fakeProvider{}, &fakeStatsFetcher{}, store)

	_, serr := s.GetNode(context.Background(), "missing")
	require.NotNil(t, serr)
	assert.Equal(t, CodeNodeNotFound, serr.Code)
}

func TestGetNodeStats_OfflineNodeNoNetworkCall(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	p := &fakeProvider{nodes: []models.Node{
		{PublicKey: "down", Host: "10.0.0.2", Port: 9980, LastSeen: time.Now().Add(-time.Hour)},
	}}
	fetcher := &fakeStatsFetcher{stats: &models.ResourceStats{MemoryUsed: 1}}

	s := newTestService(p, fetcher, store)
	_, serr := s.GetNodeStats(context.Background(), "down")

	require.NotNil(t, serr)
	assert.Equal(t, CodeStatsNotFound, serr.Code)
	assert.Equal(t, int64(0), fetcher.calls.Load(), "offline node must not trigger a network call")
}

func TestGetNodeStats_WarmCacheServesOfflineNode(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()
	ctx := context.Background()
	keys := cache.NewKeys("test")

	p := &fakeProvider{nodes: []models.Node{
		{PublicKey: "down", Host: "10.0.0.2", LastSeen: time.Now().Add(-time.Hour)},
	}}
	fetcher := &fakeStatsFetcher{}

	// Stats cached while the node was still online have a longer TTL than
	// the node-set entry and remain servable.
	data, _ := json.Marshal(models.ResourceStats{MemoryUsed: 42})
	require.NoError(t, store.Set(ctx, keys.NodeStats("down"), string(data), cache.NodeStatsTTL))

	s := newTestService(p, fetcher, store)
	resp, serr := s.GetNodeStats(ctx, "down")

	require.Nil(t, serr)
	assert.Equal(t, int64(42), resp.Stats.MemoryUsed)
	assert.Equal(t, int64(0), fetcher.calls.Load())
}

func TestGetNodeStats_OnlineMissFetchesAndCaches(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()
	ctx := context.Background()

	p := &fakeProvider{nodes: []models.Node{
		{PublicKey: "up", Host: "10.0.0.1", Port: 9980, LastSeen: time.Now()},
	}}
	fetcher := &fakeStatsFetcher{stats: &models.ResourceStats{MemoryUsed: 7, MemoryTotal: 70}}

	s := newTestService(p, fetcher, store)

	resp, serr := s.GetNodeStats(ctx, "up")
	require.Nil(t, serr)
	assert.Equal(t, int64(7), resp.Stats.MemoryUsed)
	assert.Equal(t, int64(1), fetcher.calls.Load())

	// Now warm: a second read must not refetch.
	_, serr = s.GetNodeStats(ctx, "up")
	require.Nil(t, serr)
	assert.Equal(t, int64(1), fetcher.calls.Load())
}

func TestGetNodeStats_FetchFailureIsNotFound(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	p := &fakeProvider{nodes: []models.Node{
		{PublicKey: "up", Host: "10.0.0.1", LastSeen: time.Now()},
	}}
	fetcher := &fakeStatsFetcher{err: errors.New("connection refused")}

	s := newTestService(p, fetcher, store)
	_, serr := s.GetNodeStats(context.Background(), "up")

	require.NotNil(t, serr)
	assert.Equal(t, CodeStatsNotFound, serr.Code)
	// The transport error itself must not leak.
	assert.NotContains(t, serr.Message, "connection refused")
}

func TestGetMapNodes_NoLocator(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	p := &fakeProvider{nodes: []models.Node{
		{PublicKey: "a", Host: "10.0.0.1", LastSeen: time.Now()},
	}}

	s := newTestService(p, &fakeStatsFetcher{}, store)
	resp := s.GetMapNodes(context.Background())

	require.Equal(t, 1, resp.Count)
	assert.Nil(t, resp.Nodes[0].Location)
	assert.True(t, resp.Nodes[0].Online)
}
