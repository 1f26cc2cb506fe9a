package handlers

import (
	"context"

	"github.com/nodepulse/nodepulse/internal/logging"
	"github.com/nodepulse/nodepulse/internal/models"
	"github.com/nodepulse/nodepulse/internal/services"
)

// NodeAPI is the service surface the HTTP handlers expose
type NodeAPI interface {
	GetNodes(ctx context.Context) models.NodeListResponse
	GetNode(ctx context.Context, publicKey string) (*models.NodeView, *services.ServiceError)
	GetNodeStats(ctx context.Context, publicKey string) (*models.NodeStatsResponse, *services.ServiceError)
	GetMapNodes(ctx context.Context) models.MapNodesResponse
	GetAnalytics(ctx context.Context) models.AnalyticsResponse
	Refresh(ctx context.Context) models.RefreshResponse
}

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	api     NodeAPI
	version string
}

// New creates a new handler instance
func New(logger *logging.Logger, api NodeAPI, version string) *Handler {
	return &Handler{
		logger:  logger,
		api:     api,
		version: version,
	}
}
