package http

import (
	"net/http"
	"time"

	"beamcast/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ChannelHandler exposes the read-only HTTP surface: the channel directory
// for discovery UIs, health and metrics.
type ChannelHandler struct {
	registry ports.ChannelRegistry
	hub      interface{ Count() int }
	started  time.Time
}

func NewChannelHandler(registry ports.ChannelRegistry, hub interface{ Count() int }) *ChannelHandler {
	return &ChannelHandler{
		registry: registry,
		hub:      hub,
		started:  time.Now(),
	}
}

func (h *ChannelHandler) SetupRoutes(router *gin.Engine, metricsEnabled bool) {
	router.GET("/health", h.Health)
	if metricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api/v1")
	{
		api.GET("/channels", h.ListChannels)
	}
}

func (h *ChannelHandler) ListChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"channels": h.registry.List(c.Request.Context()),
	})
}

func (h *ChannelHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now().Unix(),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"connections":    h.hub.Count(),
		"channels":       h.registry.Len(c.Request.Context()),
	})
}
