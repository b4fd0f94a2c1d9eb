package handlers

import (
	"github.com/gofiber/fiber/v2"

	"neurocart/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	out, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "categories.list", err, nil)
	}
	return c.JSON(out)
}
