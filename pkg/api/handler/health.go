package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/capability-tree/pkg/api/dto"
	"github.com/LENAX/capability-tree/pkg/core/engine"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	engine    *engine.Engine
	version   string
	startTime time.Time
}

// NewHealthHandler 创建HealthHandler
func NewHealthHandler(eng *engine.Engine, version string) *HealthHandler {
	return &HealthHandler{
		engine:    eng,
		version:   version,
		startTime: time.Now(),
	}
}

// Health 健康检查
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	uptime := time.Since(h.startTime)

	resp := dto.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Uptime:    formatDuration(uptime),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if h.engine != nil {
		if reporter := h.engine.Reporter(); reporter != nil {
			if next := reporter.NextRun(); !next.IsZero() {
				resp.ReportNextRun = next.Format(time.RFC3339)
			}
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Ready 就绪检查，存储可读才算就绪
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.engine != nil {
		if _, err := h.engine.ListTrees(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(503, fmt.Sprintf("存储不可用: %v", err)))
			return
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(map[string]string{
		"status": "ready",
	}))
}

// formatDuration 格式化时长
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
