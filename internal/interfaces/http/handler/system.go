package handler

import (
	"time"

	"github.com/gin-gonic/gin"
)

// SystemHandler exposes service metadata endpoints.
type SystemHandler struct {
	BaseHandler
	version   string
	startedAt time.Time
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(version string) *SystemHandler {
	return &SystemHandler{
		version:   version,
		startedAt: time.Now(),
	}
}

// RegisterRoutes registers system routes on the given group
func (h *SystemHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/info", h.Info)
	group.GET("/ping", h.Ping)
}

// SystemInfoResponse describes the running service
type SystemInfoResponse struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
}

// Info godoc
// @Summary Service information
// @Tags system
// @Produce json
// @Success 200 {object} dto.Response
// @Router /system/info [get]
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "Loanbook Backend API",
		Version:   h.version,
		StartedAt: h.startedAt,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// Ping godoc
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} dto.Response
// @Router /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, gin.H{"message": "pong"})
}
