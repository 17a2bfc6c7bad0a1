package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk-service/internal/api/dto"
	"github.com/helpdesk-io/helpdesk-service/internal/service"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

// AnalysisHandler exposes similarity and recurrence queries.
type AnalysisHandler struct {
	service *service.AnalysisService
}

// NewAnalysisHandler constructs handler.
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: analysisService}
}

// SimilarTickets GET /analysis/similar?title=&description=&category_id=&limit=.
func (h *AnalysisHandler) SimilarTickets(c *fiber.Ctx) error {
	title := c.Query("title")
	description := c.Query("description")
	if title == "" && description == "" {
		return apperrors.NewValidationError("title or description required", nil)
	}
	var categoryID *string
	if v := c.Query("category_id"); v != "" {
		categoryID = &v
	}
	results, err := h.service.FindSimilarTickets(c.Context(), title, description, categoryID, c.QueryInt("limit", 3))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewSimilarTicketResponses(results)})
}

// Suggestion GET /analysis/suggestion?title=&description=&category_id=.
func (h *AnalysisHandler) Suggestion(c *fiber.Ctx) error {
	title := c.Query("title")
	description := c.Query("description")
	if title == "" && description == "" {
		return apperrors.NewValidationError("title or description required", nil)
	}
	var categoryID *string
	if v := c.Query("category_id"); v != "" {
		categoryID = &v
	}
	result, err := h.service.SuggestedSolution(c.Context(), title, description, categoryID)
	if err != nil {
		return err
	}
	if result == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{
		TicketID:    result.Ticket.ID,
		ExternalKey: result.Ticket.ExternalKey,
		Title:       result.Ticket.Title,
		Resolution:  result.Ticket.Resolution,
		Similarity:  result.Similarity,
	}})
}

// RecurringIssues GET /analysis/recurring?days_back=&min_occurrences=.
func (h *AnalysisHandler) RecurringIssues(c *fiber.Ctx) error {
	patterns, err := h.service.FindRecurringIssues(c.Context(), c.QueryInt("days_back", 30), c.QueryInt("min_occurrences", 3))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRecurringPatternResponses(patterns)})
}
