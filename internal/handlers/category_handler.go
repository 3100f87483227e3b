package handlers

import (
	"storefront/internal/middleware"
	"storefront/internal/services"
	"storefront/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// CategoryHandler handles HTTP requests for categories.
type CategoryHandler struct {
	categoryService *services.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// RegisterRoutes registers the category routes. Creation is admin only.
func (h *CategoryHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	categoryRoutes := router.Group("/category")
	categoryRoutes.Get("/", h.HandleList)
	categoryRoutes.Post("/create", authRequired, middleware.RequireAdmin(), h.HandleCreate)
}

func (h *CategoryHandler) HandleList(c *fiber.Ctx) error {
	categories, err := h.categoryService.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, "Could not retrieve categories", err)
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) HandleCreate(c *fiber.Ctx) error {
	var form validation.CategoryForm
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&form); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid request body",
				"error":   err.Error(),
			})
		}
	}

	category, err := h.categoryService.CreateCategory(c.UserContext(), form)
	if err != nil {
		return respondError(c, "Could not create category", err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}
