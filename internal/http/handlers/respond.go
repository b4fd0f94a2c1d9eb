package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"neurocart/internal/domain"
	applog "neurocart/internal/log"
	"neurocart/internal/validate"
)

var validator = validate.New()

// bindJSON parses the body into out and runs struct validation. On failure it has already
// written a 400 and returns false.
func bindJSON(c *fiber.Ctx, out any) bool {
	if err := c.BodyParser(out); err != nil {
		applog.Security(c, "validation.fail", map[string]any{"reason": "bad_body"})
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		return false
	}
	if err := validator.Struct(out); err != nil {
		fields := validate.Fields(err)
		applog.Security(c, "validation.fail", map[string]any{"fields": fields})
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": fields})
		return false
	}
	return true
}

// fail maps a service error onto a status. Domain errors carry their message to the client;
// anything else is logged and reported as a bare 500.
func fail(c *fiber.Ctx, action string, err error, fields map[string]any) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, domain.ErrInvalid):
		status = fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		status = fiber.StatusConflict
	}
	if status == fiber.StatusInternalServerError {
		applog.Error(c, action+".fail", err, fields)
		return c.Status(status).JSON(fiber.Map{"error": "internal error"})
	}
	applog.Security(c, action+".fail", mergeFields(fields, "err", err.Error()))
	return c.Status(status).JSON(fiber.Map{"error": publicMessage(err)})
}

// publicMessage strips the wrapped class suffix: "coupon not found: not found" → "coupon not found".
func publicMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i > 0 {
		return msg[:i]
	}
	return msg
}

func mergeFields(fields map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for fk, fv := range fields {
		out[fk] = fv
	}
	out[k] = v
	return out
}

// pathID reads and validates the :name route parameter.
func pathID(c *fiber.Ctx, name string) (string, bool) {
	id, ok := validate.ID(c.Params(name))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": name})
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid " + name})
	}
	return id, ok
}
