package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/creator-onboarding-backend/internal/http/response"
	"github.com/yungbote/creator-onboarding-backend/internal/services"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	telemetry services.TelemetryService
	db        Pinger
}

func NewHealthHandler(telemetry services.TelemetryService, db Pinger) *HealthHandler {
	return &HealthHandler{telemetry: telemetry, db: db}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	c.String(http.StatusOK, "ok")
}

// GET /api/onboarding/health?range=24h
func (h *HealthHandler) PipelineHealth(c *gin.Context) {
	tr, err := services.ParseTimeRange(c.Query("range"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	health, err := h.telemetry.GetPipelineHealthMetrics(c.Request.Context(), tr)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, health)
}
