package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "neurocart/internal/log"
	"neurocart/internal/services"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Place(c *fiber.Ctx) error {
	var in services.CheckoutInput
	if !bindJSON(c, &in) {
		return nil
	}
	u := currentUser(c)
	co, order, err := h.Checkout.Place(c.UserContext(), u.ID, in)
	if err != nil {
		return fail(c, "checkout.place", err, map[string]any{"items": len(in.Items), "coupon": in.Coupon})
	}
	if co.CouponCode != "" {
		applog.Audit(c, "coupon.redeem", map[string]any{"code": co.CouponCode, "order_id": order.ID})
	}
	applog.Audit(c, "checkout.place", map[string]any{"checkout_id": co.ID, "order_id": order.ID, "amount": order.Amount.StringFixed(2)})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"checkout": co, "order": order})
}

// GET /api/v1/checkouts
func (h *CheckoutHandler) List(c *fiber.Ctx) error {
	out, err := h.Checkout.List(c.UserContext(), currentUser(c))
	if err != nil {
		return fail(c, "checkout.list", err, nil)
	}
	return c.JSON(out)
}
