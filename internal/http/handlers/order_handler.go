package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "neurocart/internal/log"
	"neurocart/internal/services"
)

type OrderHandler struct {
	Order *services.OrderService
}

// GET /api/v1/orders
func (h *OrderHandler) List(c *fiber.Ctx) error {
	out, err := h.Order.ListForUser(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "order.list", err, nil)
	}
	return c.JSON(out)
}

// POST /api/v1/orders
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in services.OrderInput
	if !bindJSON(c, &in) {
		return nil
	}
	o, err := h.Order.Create(c.UserContext(), currentUser(c).ID, in)
	if err != nil {
		return fail(c, "order.create", err, map[string]any{"items": len(in.Items)})
	}
	applog.Audit(c, "order.create", map[string]any{"order_id": o.ID, "amount": o.Amount.StringFixed(2)})
	return c.Status(fiber.StatusCreated).JSON(o)
}

// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	o, err := h.Order.Get(c.UserContext(), id, currentUser(c))
	if err != nil {
		return fail(c, "order.get", err, map[string]any{"order_id": id})
	}
	return c.JSON(o)
}

// GET /api/v1/orders/:id/receipt renders a printable HTML receipt.
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	id, ok := pathID(c, "id")
	if !ok {
		return nil
	}
	o, err := h.Order.Get(c.UserContext(), id, currentUser(c))
	if err != nil {
		applog.Security(c, "order.receipt.fail", map[string]any{"order_id": id, "err": err.Error()})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	return render(c, "receipt", fiber.Map{"Order": o})
}
