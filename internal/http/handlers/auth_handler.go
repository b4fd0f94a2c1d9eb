package handlers

import (
	"github.com/gofiber/fiber/v2"

	"neurocart/internal/log"
	"neurocart/internal/services"
)

type AuthHandler struct {
	Auth   *services.AuthService
	Orders *services.OrderService
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required,max=72"`
}

// POST /api/v1/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if !bindJSON(c, &in) {
		return nil
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		return fail(c, "auth.register", err, map[string]any{"username": in.Username})
	}
	log.Audit(c, "auth.register.success", map[string]any{"user_id": u.ID})
	return c.Status(fiber.StatusCreated).JSON(u)
}

// POST /api/v1/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginRequest
	if !bindJSON(c, &in) {
		return nil
	}
	sess, err := h.Auth.Login(c.UserContext(), in.Username, in.Password)
	if err != nil {
		return fail(c, "auth.login", err, map[string]any{"username": in.Username})
	}
	log.Audit(c, "auth.login.success", map[string]any{"user_id": sess.User.ID})
	return c.JSON(sess)
}

// POST /api/v1/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tok, _ := c.Locals("token").(string)
	if err := h.Auth.Logout(c.UserContext(), tok); err != nil {
		return fail(c, "auth.logout", err, nil)
	}
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/v1/profile
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Orders.ListForUser(c.UserContext(), u.ID)
	if err != nil {
		return fail(c, "profile.load", err, nil)
	}
	return c.JSON(fiber.Map{"user": u, "orders": orders})
}
