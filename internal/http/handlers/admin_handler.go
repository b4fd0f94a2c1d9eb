package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"neurocart/internal/domain"
	applog "neurocart/internal/log"
	"neurocart/internal/services"
)

type AdminHandler struct {
	Catalog *services.CatalogService
	Inv     *services.InventoryService
	Order   *services.OrderService
}

type stockRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,status"`
}

// POST /api/v1/admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if !bindJSON(c, &in) {
		return nil
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), in)
	if err != nil {
		return fail(c, "admin.products.create", err, nil)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": p.ID})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /api/v1/admin/products/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var in services.ProductInput
	if !bindJSON(c, &in) {
		return nil
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), id, in)
	if err != nil {
		return fail(c, "admin.products.update", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id})
	return c.JSON(p)
}

// GET /api/v1/admin/inventory?threshold=5
func (h *AdminHandler) LowStock(c *fiber.Ctx) error {
	threshold, err := strconv.Atoi(c.Query("threshold", "5"))
	if err != nil || threshold < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid threshold"})
	}
	rows, err := h.Inv.Low(c.UserContext(), threshold)
	if err != nil {
		return fail(c, "admin.inventory.list", err, nil)
	}
	return c.JSON(rows)
}

// PUT /api/v1/admin/inventory/:id
func (h *AdminHandler) SetStock(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var in stockRequest
	if !bindJSON(c, &in) {
		return nil
	}
	if err := h.Inv.SetQty(c.UserContext(), id, *in.Quantity); err != nil {
		return fail(c, "admin.inventory.save", err, map[string]any{"product_id": id})
	}
	applog.Audit(c, "admin.inventory.save", map[string]any{"product_id": id, "qty": *in.Quantity})
	return c.JSON(fiber.Map{"product_id": id, "quantity": *in.Quantity, "availability": services.Availability(*in.Quantity)})
}

// POST /api/v1/admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	var in statusRequest
	if !bindJSON(c, &in) {
		return nil
	}
	o, err := h.Order.Transition(c.UserContext(), id, domain.OrderStatus(in.Status))
	if err != nil {
		return fail(c, "admin.orders.update", err, map[string]any{"order_id": id, "status": in.Status})
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": in.Status})
	return c.JSON(o)
}
