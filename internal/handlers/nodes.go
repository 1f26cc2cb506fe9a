package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// GetNodes handles GET /v1/nodes
func (h *Handler) GetNodes(c *fiber.Ctx) error {
	return c.JSON(h.api.GetNodes(c.UserContext()))
}

// GetNodeByID handles GET /v1/nodes/:id
func (h *Handler) GetNodeByID(c *fiber.Ctx) error {
	publicKey := c.Params("id")
	if publicKey == "" {
		return fiber.NewError(fiber.StatusBadRequest, "node id is required")
	}

	node, serr := h.api.GetNode(c.UserContext(), publicKey)
	if serr != nil {
		return serr
	}

	return c.JSON(node)
}

// GetNodeStats handles GET /v1/nodes/:id/stats
func (h *Handler) GetNodeStats(c *fiber.Ctx) error {
	publicKey := c.Params("id")
	if publicKey == "" {
		return fiber.NewError(fiber.StatusBadRequest, "node id is required")
	}

	stats, serr := h.api.GetNodeStats(c.UserContext(), publicKey)
	if serr != nil {
		return serr
	}

	return c.JSON(stats)
}

// GetMapNodes handles GET /v1/nodes/map
func (h *Handler) GetMapNodes(c *fiber.Ctx) error {
	return c.JSON(h.api.GetMapNodes(c.UserContext()))
}

// GetAnalytics handles GET /v1/analytics
func (h *Handler) GetAnalytics(c *fiber.Ctx) error {
	return c.JSON(h.api.GetAnalytics(c.UserContext()))
}

// Refresh handles POST /admin/refresh
func (h *Handler) Refresh(c *fiber.Ctx) error {
	h.logger.Info("Manual refresh requested", "ip", c.IP())
	return c.JSON(h.api.Refresh(c.UserContext()))
}
