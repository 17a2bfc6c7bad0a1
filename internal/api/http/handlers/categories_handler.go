package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
	"github.com/helpdesk-io/helpdesk-service/internal/repository"
	apperrors "github.com/helpdesk-io/helpdesk-service/pkg/util"
)

// CategoriesHandler manages category administration.
type CategoriesHandler struct {
	categories repository.CategoryRepository
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categories repository.CategoryRepository) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

type createCategoryRequest struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	DefaultAgentID *string `json:"default_agent_id"`
}

// Create POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req createCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	category := &domain.Category{
		Name:           strings.TrimSpace(req.Name),
		Description:    strings.TrimSpace(req.Description),
		DefaultAgentID: req.DefaultAgentID,
		IsActive:       true,
	}
	if err := h.categories.Create(c.Context(), category); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": category})
}

// List GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	categories, err := h.categories.ListActive(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": categories})
}
