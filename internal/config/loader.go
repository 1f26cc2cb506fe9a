package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")              // Current directory
		v.AddConfigPath("./configs")      // Project configs directory
		v.AddConfigPath("/etc/nodepulse") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix("NODEPULSE")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)

	// Cache defaults
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.connect_timeout", "5s")
	v.SetDefault("cache.key_prefix", "nodepulse")

	// Discovery defaults
	v.SetDefault("discovery.primary_endpoint", "http://localhost:9980")
	v.SetDefault("discovery.fallback_endpoints", []string{})
	v.SetDefault("discovery.timeout", "10s")
	v.SetDefault("discovery.online_threshold", "300s")

	// Enrichment defaults
	v.SetDefault("enrichment.enabled", true)
	v.SetDefault("enrichment.interval", "90s")
	v.SetDefault("enrichment.batch_size", 15)
	v.SetDefault("enrichment.batch_pause", "100ms")
	v.SetDefault("enrichment.fetch_timeout", "8s")

	// Geo defaults
	v.SetDefault("geo.endpoint", "")
	v.SetDefault("geo.timeout", "5s")

	// Events defaults
	v.SetDefault("events.type", "memory")
	v.SetDefault("events.url", "nats://localhost:4222")
	v.SetDefault("events.subject", "nodepulse.status")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8080,
		},
		Cache: CacheConfig{
			RedisAddr:      "localhost:6379",
			ConnectTimeout: 5 * time.Second,
			KeyPrefix:      "nodepulse",
		},
		Discovery: DiscoveryConfig{
			PrimaryEndpoint: "http://localhost:9980",
			Timeout:         10 * time.Second,
			OnlineThreshold: 300 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			Enabled:      true,
			Interval:     90 * time.Second,
			BatchSize:    15,
			BatchPause:   100 * time.Millisecond,
			FetchTimeout: 8 * time.Second,
		},
		Geo: GeoConfig{
			Timeout: 5 * time.Second,
		},
		Events: EventsConfig{
			Type:    "memory",
			URL:     "nats://localhost:4222",
			Subject: "nodepulse.status",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
