// Package gossip binds the external discovery protocol: a bulk node listing
// obtained from a gossip entry point, and a direct per-node stats query.
// Both are opaque, unreliable, and rate-sensitive; every call carries its
// own timeout and failures surface as ordinary errors, never panics.
package gossip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nodepulse/nodepulse/internal/models"
)

// RawNode is a single record from a discovery listing. Records may be
// partial or malformed; normalization decides what is usable.
type RawNode struct {
	PublicKey       string    `json:"public_key"`
	Host            string    `json:"host"`
	Port            int       `json:"port"`
	Version         string    `json:"version"`
	StorageUsed     int64     `json:"storage_used"`
	StorageCapacity int64     `json:"storage_capacity"`
	LastSeen        int64     `json:"last_seen"` // unix seconds
	Stats           *RawStats `json:"stats,omitempty"`
}

// RawStats is the optional embedded resource block of a rich listing
type RawStats struct {
	MemoryUsed  int64 `json:"memory_used"`
	MemoryTotal int64 `json:"memory_total"`
}

// Client is the discovery surface consumed by the engine and the
// enrichment scheduler.
type Client interface {
	// ListNodes queries one gossip endpoint for the node listing.
	// withStats requests the richer form with embedded resource stats.
	ListNodes(ctx context.Context, endpoint string, withStats bool) ([]RawNode, error)

	// FetchStats queries a single node directly for its resource stats.
	FetchStats(ctx context.Context, address string) (*models.ResourceStats, error)
}

// HTTPClient implements Client over the HTTP JSON gossip protocol
type HTTPClient struct {
	httpClient   *http.Client
	listTimeout  time.Duration
	statsTimeout time.Duration
}

// NewHTTPClient creates a gossip client with per-call timeouts
func NewHTTPClient(listTimeout, statsTimeout time.Duration) *HTTPClient {
	return &HTTPClient{
		// Per-request deadlines come from the context; the transport-level
		// timeout is a backstop only.
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		listTimeout:  listTimeout,
		statsTimeout: statsTimeout,
	}
}

// ListNodes queries a gossip endpoint for the node listing
func (c *HTTPClient) ListNodes(ctx context.Context, endpoint string, withStats bool) ([]RawNode, error) {
	url := fmt.Sprintf("%s/api/nodes?stats=%t", endpoint, withStats)

	ctx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var nodes []RawNode
	if err := json.Unmarshal(body, &nodes); err != nil {
		return nil, fmt.Errorf("decode node listing from %s: %w", endpoint, err)
	}

	return nodes, nil
}

// FetchStats queries one node directly for its resource stats
func (c *HTTPClient) FetchStats(ctx context.Context, address string) (*models.ResourceStats, error) {
	url := fmt.Sprintf("http://%s/api/stats", address)

	ctx, cancel := context.WithTimeout(ctx, c.statsTimeout)
	defer cancel()

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw RawStats
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode stats from %s: %w", address, err)
	}

	return &models.ResourceStats{
		MemoryUsed:  raw.MemoryUsed,
		MemoryTotal: raw.MemoryTotal,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

// get performs a GET and returns the response body
func (c *HTTPClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("read response from %s: %w", url, err)
	}

	return body, nil
}
