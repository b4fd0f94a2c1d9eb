package handlers

import (
	"github.com/gofiber/fiber/v2"

	"neurocart/internal/domain"
	applog "neurocart/internal/log"
	"neurocart/internal/repos"
	"neurocart/internal/services"
	"neurocart/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Reviews *services.ReviewService
}

// GET /api/v1/products?category=&q=
func (h *ProductHandler) List(c *fiber.Ctx) error {
	var f repos.ProductFilter
	if cat := c.Query("category"); cat != "" {
		if !domain.Category(cat).Valid() {
			applog.Security(c, "validation.fail", map[string]any{"field": "category"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown category"})
		}
		f.Category = domain.Category(cat)
	}
	if raw := c.Query("q"); raw != "" {
		q, ok := validate.Q(raw)
		if !ok {
			applog.Security(c, "validation.fail", map[string]any{"field": "q"})
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid search query"})
		}
		f.Query = q
	}
	out, err := h.Catalog.ListProducts(c.UserContext(), f)
	if err != nil {
		return fail(c, "products.list", err, nil)
	}
	return c.JSON(out)
}

// GET /api/v1/products/:id
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "products.detail", err, map[string]any{"product_id": id})
	}
	return c.JSON(fiber.Map{"product": p, "availability": services.Availability(p.Quantity)})
}

// GET /api/v1/products/:id/reviews
func (h *ProductHandler) ListReviews(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	out, err := h.Reviews.List(c.UserContext(), id)
	if err != nil {
		return fail(c, "reviews.list", err, map[string]any{"product_id": id})
	}
	return c.JSON(out)
}

// POST /api/v1/products/:id/reviews
func (h *ProductHandler) CreateReview(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var in services.ReviewInput
	if !bindJSON(c, &in) {
		return nil
	}
	rv, err := h.Reviews.Create(c.UserContext(), currentUser(c).ID, id, in)
	if err != nil {
		return fail(c, "reviews.create", err, map[string]any{"product_id": id})
	}
	rv.Username = currentUser(c).Username
	applog.Audit(c, "reviews.create", map[string]any{"product_id": id, "rate": rv.Rate})
	return c.Status(fiber.StatusCreated).JSON(rv)
}
