package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nodepulse/nodepulse/internal/analytics"
	"github.com/nodepulse/nodepulse/internal/cache"
	"github.com/nodepulse/nodepulse/internal/config"
	"github.com/nodepulse/nodepulse/internal/discovery"
	"github.com/nodepulse/nodepulse/internal/enrichment"
	"github.com/nodepulse/nodepulse/internal/events"
	"github.com/nodepulse/nodepulse/internal/geo"
	"github.com/nodepulse/nodepulse/internal/gossip"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/nodes"
	"github.com/nodepulse/nodepulse/internal/router"
	"github.com/nodepulse/nodepulse/internal/services"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Observer service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Tiered cache: local tier always on, remote tier only when configured.
	// The remote probe runs in the background so startup never blocks on it.
	var remote cache.RemoteStore
	if cfg.Cache.RedisAddr != "" {
		logger.Info("Remote cache tier configured", "addr", cfg.Cache.RedisAddr)
		remote = cache.NewRedisStore(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	} else {
		logger.Warn("No remote cache configured - running on the local tier only")
	}
	tiered := cache.NewTiered(remote, logger, cfg.Cache.ConnectTimeout)
	keys := cache.NewKeys(cfg.Cache.KeyPrefix)

	// Gossip client and discovery engine
	gossipClient := gossip.NewHTTPClient(cfg.Discovery.Timeout, cfg.Enrichment.FetchTimeout)
	engine := discovery.NewEngine(gossipClient, cfg.Discovery, logger)

	// Status event publisher (best-effort, failures never block reads)
	logger.Info("Connecting to event backend", "type", cfg.Events.Type)
	publisher, err := events.NewPublisher(cfg.Events)
	if err != nil {
		logger.Warn("Event backend unavailable - status events disabled", "error", err)
		publisher = nil
	}
	if publisher != nil {
		defer func() { _ = publisher.Close() }()
	}

	// Node cache manager
	manager := nodes.NewManager(tiered, keys, engine, publisher, cfg.Discovery.OnlineThreshold, logger)

	// Background enrichment scheduler, gated on the cache's remote probe
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := enrichment.NewScheduler(cfg.Enrichment, manager, gossipClient, tiered, keys, logger)
	scheduler.Start(ctx, tiered.Ready())

	// Read-path services
	locator := geo.NewResolver(tiered, keys, cfg.Geo, logger)
	snapshotter := analytics.NewService(tiered, keys, manager, logger)
	nodeService := services.NewNodeService(
		manager, gossipClient, locator, snapshotter,
		tiered, keys, cfg.Enrichment.FetchTimeout, logger,
	)

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	// Initialize router
	app := router.New(logger, nodeService, *cfg)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop background work before closing the cache it writes to
	scheduler.Stop()

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	tiered.Stop()

	logger.Info("Server exited")
}
