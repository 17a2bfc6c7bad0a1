package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk-service/internal/api/dto"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

// AssignmentHandler manages assignment and workload endpoints.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: assignmentService}
}

// Assign POST /tickets/:id/assign. Empty agent_id auto-assigns.
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.Assign(c.Context(), c.Params("id"), req.AgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Reassign POST /tickets/:id/reassign.
func (h *AssignmentHandler) Reassign(c *fiber.Ctx) error {
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.FromAgentID == "" || req.ToAgentID == "" {
		return apperrors.NewValidationError("from_agent_id and to_agent_id required", nil)
	}
	ticket, err := h.service.Reassign(c.Context(), c.Params("id"), req.FromAgentID, req.ToAgentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Workload GET /agents/:id/workload.
func (h *AssignmentHandler) Workload(c *fiber.Ctx) error {
	snapshot, err := h.service.Workload(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewWorkloadResponse(snapshot)})
}

// AllWorkloads GET /agents/workloads.
func (h *AssignmentHandler) AllWorkloads(c *fiber.Ctx) error {
	snapshots, err := h.service.AllWorkloads(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.WorkloadResponse, 0, len(snapshots))
	for i := range snapshots {
		items = append(items, dto.NewWorkloadResponse(&snapshots[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
