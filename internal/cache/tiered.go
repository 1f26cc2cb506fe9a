package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nodepulse/nodepulse/internal/logging"
)

// RemoteStore is the remote tier as seen by the tiered cache. GetChecked
// keeps the miss/error distinction that plain Get hides, so the fallback
// decision stays explicit.
type RemoteStore interface {
	GetChecked(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Tiered is the cache handed to every component. The remote tier is
// authoritative when reachable; the local tier shadows every write so a
// remote outage does not erase recently cached values.
type Tiered struct {
	remote   RemoteStore // nil when the remote tier is disabled
	local    *MemoryStore
	logger   *logging.Logger
	ready    chan struct{}
	remoteUp atomic.Bool
}

// NewTiered builds the tiered cache and starts the best-effort remote probe
// in the background. Startup never blocks on the remote tier; Ready() closes
// once the probe has finished either way.
func NewTiered(remote RemoteStore, logger *logging.Logger, connectTimeout time.Duration) *Tiered {
	t := &Tiered{
		remote: remote,
		local:  NewMemoryStore(),
		logger: logger.With("component", "cache"),
		ready:  make(chan struct{}),
	}

	go t.probeRemote(connectTimeout)

	return t
}

// probeRemote attempts the initial remote connection and records the outcome
func (t *Tiered) probeRemote(timeout time.Duration) {
	defer close(t.ready)

	if t.remote == nil {
		t.logger.Info("Remote cache tier disabled, running on local tier only")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := t.remote.Ping(ctx); err != nil {
		t.logger.Warn("Remote cache tier unreachable, falling back to local tier", "error", err)
		return
	}

	t.remoteUp.Store(true)
	t.logger.Info("Remote cache tier connected")
}

// Ready is closed once the remote init attempt has completed, successfully
// or not. The enrichment scheduler waits on it before starting.
func (t *Tiered) Ready() <-chan struct{} {
	return t.ready
}

// RemoteAvailable reports whether the startup probe reached the remote tier
func (t *Tiered) RemoteAvailable() bool {
	return t.remoteUp.Load()
}

// Get consults the remote tier first. A remote failure, unlike a remote
// miss, silently degrades to the local tier.
func (t *Tiered) Get(ctx context.Context, key string) (string, bool) {
	if t.remote == nil {
		return t.local.Get(ctx, key)
	}

	val, ok, err := t.remote.GetChecked(ctx, key)
	if err != nil {
		t.logger.Debug("Remote cache get failed, consulting local tier", "key", key, "error", err)
		return t.local.Get(ctx, key)
	}

	return val, ok
}

// Set writes the local shadow copy first, then the remote tier. A remote
// write failure is logged and swallowed; reads stay warm from the shadow.
func (t *Tiered) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	_ = t.local.Set(ctx, key, value, ttl)

	if t.remote != nil {
		if err := t.remote.Set(ctx, key, value, ttl); err != nil {
			t.logger.Debug("Remote cache set failed, local tier holds the value", "key", key, "error", err)
		}
	}

	return nil
}

// Delete removes the key from both tiers
func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.local.Delete(ctx, key)

	if t.remote != nil {
		if err := t.remote.Delete(ctx, key); err != nil {
			t.logger.Debug("Remote cache delete failed", "key", key, "error", err)
		}
	}

	return nil
}

// Stop terminates the local tier's sweep goroutine
func (t *Tiered) Stop() {
	t.local.Stop()
}
