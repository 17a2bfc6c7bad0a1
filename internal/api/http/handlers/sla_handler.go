package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk-service/internal/observability"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
)

// SLAHandler triggers and inspects SLA sweeps.
type SLAHandler struct {
	monitor *service.SLAMonitor
	metrics *observability.Metrics
}

// NewSLAHandler constructs handler.
func NewSLAHandler(monitor *service.SLAMonitor, metrics *observability.Metrics) *SLAHandler {
	return &SLAHandler{monitor: monitor, metrics: metrics}
}

// RunSweep POST /sla/sweep.
func (h *SLAHandler) RunSweep(c *fiber.Ctx) error {
	stats, err := h.monitor.Run(c.Context())
	if err != nil {
		return err
	}
	h.metrics.RecordSweep(
		stats.FirstResponseBreaches+stats.ResolutionBreaches,
		stats.FirstResponseWarnings+stats.ResolutionWarnings,
		stats.NotificationsSent,
	)
	return c.JSON(fiber.Map{"data": stats})
}

// LastSweep GET /sla/sweep/last.
func (h *SLAHandler) LastSweep(c *fiber.Ctx) error {
	stats, err := h.monitor.LastSweep(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
