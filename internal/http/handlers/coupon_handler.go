package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	applog "neurocart/internal/log"
	"neurocart/internal/services"
	"neurocart/internal/validate"
)

type CouponHandler struct {
	Coupons *services.CouponService
}

type couponValidateRequest struct {
	Code   string `json:"code" validate:"required,alphanum,max=32"`
	Amount string `json:"amount" validate:"required,money"`
}

// POST /api/v1/coupons/validate
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var in couponValidateRequest
	if !bindJSON(c, &in) {
		return nil
	}
	code, _ := validate.CouponCode(in.Code)
	total := decimal.RequireFromString(in.Amount)

	_, discounted, err := h.Coupons.ValidateFor(c.UserContext(), currentUser(c).ID, code, total)
	if err != nil {
		return fail(c, "coupon.validate", err, map[string]any{"code": code})
	}
	return c.JSON(fiber.Map{"discounted_total": discounted.StringFixed(2), "message": "Coupon applied"})
}

// GET /api/v1/coupons/:code
func (h *CouponHandler) Get(c *fiber.Ctx) error {
	code, ok := validate.CouponCode(c.Params("code"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "code"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid code"})
	}
	cp, err := h.Coupons.Lookup(c.UserContext(), code, currentUser(c))
	if err != nil {
		return fail(c, "coupon.get", err, map[string]any{"code": code})
	}
	return c.JSON(cp)
}

// GET /api/v1/coupon/user
func (h *CouponHandler) Mine(c *fiber.Ctx) error {
	cp, err := h.Coupons.ForUser(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "coupon.mine", err, nil)
	}
	return c.JSON(cp)
}
