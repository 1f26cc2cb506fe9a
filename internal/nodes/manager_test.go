package nodes

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nodepulse/nodepulse/internal/cache"
	"github.com/nodepulse/nodepulse/internal/events"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	nodes []models.Node
	calls atomic.Int64
}

func (f *fakeEngine) Discover(context.Context) []models.Node {
	f.calls.Add(1)
	return f.nodes
}

func newTestManager(engine Discoverer, store cache.Store, pub events.Publisher) *Manager {
	return NewManager(store, cache.NewKeys("test"), engine, pub, 300*time.Second, logging.Nop())
}

func node(key, host string) models.Node {
	return models.Node{PublicKey: key, Host: host, Port: 9980, LastSeen: time.Now()}
}

func TestGetAllNodes_MissRunsDiscoveryAndCaches(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	engine := &fakeEngine{nodes: []models.Node{node("a", "10.0.0.1"), node("b", "10.0.0.2")}}
	m := newTestManager(engine, store, nil)
	ctx := context.Background()

	got := m.GetAllNodes(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), engine.calls.Load())

	// Second read is served from the cache.
	got = m.GetAllNodes(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), engine.calls.Load(), "cache hit must not re-run discovery")
}

func TestGetAllNodes_DedupeDefenseInDepth(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	// An engine that misbehaves and returns duplicate identities.
	engine := &fakeEngine{nodes: []models.Node{
		node("X", "10.0.0.1"),
		node("Y", "10.0.0.2"),
		node("X", "10.0.0.99"),
	}}
	m := newTestManager(engine, store, nil)

	got := m.GetAllNodes(context.Background())
	require.Len(t, got, 2)
	assert.Equal(t, "X", got[0].PublicKey)
	assert.Equal(t, "10.0.0.1", got[0].Host, "first occurrence wins")
}

func TestGetAllNodes_MergesEnrichmentOnHit(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()
	ctx := context.Background()
	keys := cache.NewKeys("test")

	engine := &fakeEngine{nodes: []models.Node{node("a", "10.0.0.1")}}
	m := newTestManager(engine, store, nil)

	// Prime the node-set cache.
	got := m.GetAllNodes(ctx)
	require.Len(t, got, 1)
	require.Nil(t, got[0].Stats)

	// Enrichment lands between reads, under the per-node key.
	stats := models.ResourceStats{MemoryUsed: 512, MemoryTotal: 2048, FetchedAt: time.Now().UTC()}
	data, err := json.Marshal(stats)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, keys.NodeStats("a"), string(data), cache.NodeStatsTTL))

	// The next cache hit must still pick the stats up.
	got = m.GetAllNodes(ctx)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Stats)
	assert.Equal(t, int64(512), got[0].Stats.MemoryUsed)
	assert.Equal(t, int64(1), engine.calls.Load())
}

func TestGetAllNodes_EmptyDiscoveryIsCacheable(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	engine := &fakeEngine{nodes: nil}
	m := newTestManager(engine, store, nil)
	ctx := context.Background()

	got := m.GetAllNodes(ctx)
	assert.Empty(t, got)
	assert.Equal(t, int64(1), engine.calls.Load())

	// "No nodes found" is a valid cached outcome, not a fault to retry.
	got = m.GetAllNodes(ctx)
	assert.Empty(t, got)
	assert.Equal(t, int64(1), engine.calls.Load())
}

func TestGetByID(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	engine := &fakeEngine{nodes: []models.Node{node("a", "10.0.0.1"), node("b", "10.0.0.2")}}
	m := newTestManager(engine, store, nil)
	ctx := context.Background()

	n, ok := m.GetByID(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, "10.0.0.2", n.Host)

	_, ok = m.GetByID(ctx, "missing")
	assert.False(t, ok)
}

func TestRefresh_InvalidatesNodeSet(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	engine := &fakeEngine{nodes: []models.Node{node("a", "10.0.0.1")}}
	m := newTestManager(engine, store, nil)
	ctx := context.Background()

	m.GetAllNodes(ctx)
	require.Equal(t, int64(1), engine.calls.Load())

	engine.nodes = []models.Node{node("a", "10.0.0.1"), node("b", "10.0.0.2")}
	got := m.Refresh(ctx)

	require.Len(t, got, 2)
	assert.Equal(t, int64(2), engine.calls.Load())
}

func TestStatusTransitionEvents(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()

	online := node("a", "10.0.0.1")
	engine := &fakeEngine{nodes: []models.Node{online}}
	pub := events.NewMemoryPublisher("test.status")
	m := newTestManager(engine, store, pub)
	ctx := context.Background()

	// First observation publishes the initial status.
	m.Refresh(ctx)
	require.Len(t, pub.Messages(), 1)

	var ev models.StatusEvent
	require.NoError(t, json.Unmarshal(pub.Messages()[0], &ev))
	assert.Equal(t, "a", ev.PublicKey)
	assert.True(t, ev.Online)

	// Unchanged status publishes nothing.
	m.Refresh(ctx)
	assert.Len(t, pub.Messages(), 1)

	// Node goes quiet: offline transition is published.
	offline := online
	offline.LastSeen = time.Now().Add(-time.Hour)
	engine.nodes = []models.Node{offline}

	m.Refresh(ctx)
	require.Len(t, pub.Messages(), 2)
	require.NoError(t, json.Unmarshal(pub.Messages()[1], &ev))
	assert.False(t, ev.Online)
}

func TestGetAllNodes_CorruptCacheEntryBehavesAsMiss(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Stop()
	ctx := context.Background()
	keys := cache.NewKeys("test")

	engine := &fakeEngine{nodes: []models.Node{node("a", "10.0.0.1")}}
	m := newTestManager(engine, store, nil)

	require.NoError(t, store.Set(ctx, keys.NodeSet(), "{not json", cache.NodeSetTTL))

	got := m.GetAllNodes(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), engine.calls.Load(), "corrupt entry must fall through to discovery")
}
