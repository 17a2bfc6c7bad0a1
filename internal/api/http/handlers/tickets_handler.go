package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk-service/internal/api/dto"
	"github.com/helpdesk-io/helpdesk-service/internal/auth"
	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
	"github.com/helpdesk-io/helpdesk-service/internal/sla"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
	clock   sla.Clock
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, clock sla.Clock) *TicketsHandler {
	if clock == nil {
		clock = sla.SystemClock{}
	}
	return &TicketsHandler{service: ticketService, clock: clock}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Description == "" {
		return apperrors.NewValidationError("title and description required", nil)
	}
	if !validImpact(req.Impact) || !validUrgency(req.Urgency) {
		return apperrors.NewValidationError("impact and urgency must be LOW, MEDIUM or HIGH", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), principal.User.ID, service.TicketCreateInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Impact:      req.Impact,
		Urgency:     req.Urgency,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, h.clock.Now())})
}

// ListTickets GET /tickets. Employees see their own tickets; agents and
// above see everything the filter matches.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	filter := parseTicketQuery(c)
	if !principal.User.Role.AtLeast(domain.RoleAgent) {
		requesterID := principal.User.ID
		filter.RequesterID = &requesterID
	}
	tickets, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if !principal.User.Role.AtLeast(domain.RoleAgent) && ticket.RequesterID != principal.User.ID {
		return apperrors.NewForbidden("access denied")
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, h.clock.Now())})
}

// UpdateStatus PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateStatus(c.Context(), principal.User.ID, c.Params("id"), req.Status, req.Resolution)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, h.clock.Now())})
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("status"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(raw))))
		}
	}
	if v := c.Query("priority"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			filter.Priorities = append(filter.Priorities, domain.Priority(strings.ToUpper(strings.TrimSpace(raw))))
		}
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := c.Query("agent_id"); v != "" {
		filter.AssignedAgentID = &v
	}
	if v := c.Query("search"); v != "" {
		filter.SearchTerm = &v
	}
	if v := c.Query("created_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedFrom = &t
		}
	}
	if v := c.Query("created_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.CreatedTo = &t
		}
	}
	return filter
}

func validImpact(v domain.Impact) bool {
	switch v {
	case domain.ImpactLow, domain.ImpactMedium, domain.ImpactHigh:
		return true
	}
	return false
}

func validUrgency(v domain.Urgency) bool {
	switch v {
	case domain.UrgencyLow, domain.UrgencyMedium, domain.UrgencyHigh:
		return true
	}
	return false
}
