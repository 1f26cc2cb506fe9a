package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/nodepulse/nodepulse/internal/config"
	"github.com/nodepulse/nodepulse/internal/handlers"
	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/middleware"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, api handlers.NodeAPI, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, api, Version)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// Node read surface (public)
	v1 := app.Group("/v1")
	v1.Get("/nodes", h.GetNodes)
	// /nodes/map must be registered before /nodes/:id
	v1.Get("/nodes/map", h.GetMapNodes)
	v1.Get("/nodes/:id", h.GetNodeByID)
	v1.Get("/nodes/:id/stats", h.GetNodeStats)
	v1.Get("/analytics", h.GetAnalytics)

	// Admin routes (protected by API key)
	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)
	admin := app.Group("/admin", authMiddleware)
	admin.Post("/refresh", h.Refresh)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, api handlers.NodeAPI, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "NodePulse Observer",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, api, cfg)

	return app
}
