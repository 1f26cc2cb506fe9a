package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Geo        GeoConfig        `mapstructure:"geo"`
	Events     EventsConfig     `mapstructure:"events"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// CacheConfig represents tiered cache configuration
type CacheConfig struct {
	RedisAddr      string        `mapstructure:"redis_addr"`      // Remote tier address; empty disables the remote tier
	RedisPassword  string        `mapstructure:"redis_password"`  // Optional authentication
	RedisDB        int           `mapstructure:"redis_db"`        // Redis database number (default: 0)
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"` // Remote tier probe timeout at startup
	KeyPrefix      string        `mapstructure:"key_prefix"`      // Namespace prefix for all cache keys
}

// DiscoveryConfig represents gossip discovery configuration
type DiscoveryConfig struct {
	PrimaryEndpoint   string        `mapstructure:"primary_endpoint"`   // Gossip entry point queried first
	FallbackEndpoints []string      `mapstructure:"fallback_endpoints"` // Ordered fallbacks, tried when primary yields nothing
	Timeout           time.Duration `mapstructure:"timeout"`            // Per-endpoint request timeout
	OnlineThreshold   time.Duration `mapstructure:"online_threshold"`   // Nodes seen within this window count as online
}

// EnrichmentConfig represents background stats enrichment configuration
type EnrichmentConfig struct {
	Enabled      bool          `mapstructure:"enabled"`       // Enable the background scheduler
	Interval     time.Duration `mapstructure:"interval"`      // Scheduler period
	BatchSize    int           `mapstructure:"batch_size"`    // Nodes queried per batch
	BatchPause   time.Duration `mapstructure:"batch_pause"`   // Pause between batches
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"` // Per-node stats request timeout
}

// GeoConfig represents geo lookup configuration
type GeoConfig struct {
	Endpoint string        `mapstructure:"endpoint"` // Lookup service URL; %s is replaced with the IP
	Timeout  time.Duration `mapstructure:"timeout"`  // Per-lookup request timeout
}

// EventsConfig represents status event publishing configuration
type EventsConfig struct {
	Type     string   `mapstructure:"type"`     // Backend: nats (default), kafka, redis, memory
	URL      string   `mapstructure:"url"`      // Backend URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Password string   `mapstructure:"password"` // Optional authentication
	RedisDB  int      `mapstructure:"redis_db"` // Redis database number (default: 0)
	Brokers  []string `mapstructure:"brokers"`  // Kafka broker addresses
	Subject  string   `mapstructure:"subject"`  // Subject/topic/stream for status events
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Discovery.Validate(); err != nil {
		return fmt.Errorf("discovery config: %w", err)
	}

	if err := c.Enrichment.Validate(); err != nil {
		return fmt.Errorf("enrichment config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	return nil
}

// Validate validates discovery configuration
func (c *DiscoveryConfig) Validate() error {
	if c.PrimaryEndpoint == "" {
		return fmt.Errorf("discovery.primary_endpoint is required")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("discovery.timeout must be positive")
	}

	if c.OnlineThreshold <= 0 {
		return fmt.Errorf("discovery.online_threshold must be positive")
	}

	return nil
}

// Validate validates enrichment configuration
func (c *EnrichmentConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("enrichment.interval must be positive")
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("enrichment.batch_size must be at least 1")
	}

	if c.BatchPause < 0 {
		return fmt.Errorf("enrichment.batch_pause cannot be negative")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("enrichment.fetch_timeout must be positive")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
