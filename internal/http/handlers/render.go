package handlers

import (
	"github.com/gofiber/fiber/v2"

	"neurocart/internal/domain"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u, ok := c.Locals("user").(*domain.User); ok && u != nil {
		data["User"] = u
	}
	return c.Render(tmpl, data)
}
