// Package geo resolves node IPs to locations through the 24h geo cache.
// The upstream lookup service is rate-limited, so it is only ever consulted
// on a cache miss, and a failed lookup yields "no geo data", never an error.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nodepulse/nodepulse/internal/cache"
	"github.com/nodepulse/nodepulse/internal/config"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
)

// Resolver resolves IPs to locations via the cache
type Resolver struct {
	cache      cache.Store
	keys       cache.Keys
	cfg        config.GeoConfig
	httpClient *http.Client
	logger     *logging.Logger
}

// NewResolver creates a geo resolver
func NewResolver(store cache.Store, keys cache.Keys, cfg config.GeoConfig, logger *logging.Logger) *Resolver {
	return &Resolver{
		cache:      store,
		keys:       keys,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger.With("component", "geo"),
	}
}

// Locate returns the location for an IP, or nil when none is known.
// The lookup service is only reached on a cache miss.
func (r *Resolver) Locate(ctx context.Context, ip string) *models.GeoInfo {
	if ip == "" {
		return nil
	}

	if raw, ok := r.cache.Get(ctx, r.keys.Geo(ip)); ok {
		var info models.GeoInfo
		if err := json.Unmarshal([]byte(raw), &info); err == nil {
			return &info
		}
	}

	if r.cfg.Endpoint == "" {
		return nil
	}

	info := r.lookup(ctx, ip)
	if info == nil {
		return nil
	}

	if data, err := json.Marshal(info); err == nil {
		_ = r.cache.Set(ctx, r.keys.Geo(ip), string(data), cache.GeoTTL)
	}

	return info
}

// lookup queries the external service once, with its own timeout
func (r *Resolver) lookup(ctx context.Context, ip string) *models.GeoInfo {
	url := fmt.Sprintf(r.cfg.Endpoint, ip)

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.Debug("Geo lookup failed", "ip", ip, "error", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		r.logger.Debug("Geo lookup rejected", "ip", ip, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	var info models.GeoInfo
	if err := json.Unmarshal(body, &info); err != nil {
		r.logger.Debug("Geo lookup returned undecodable body", "ip", ip, "error", err)
		return nil
	}

	return &info
}
