package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	applog "neurocart/internal/log"
)

type AppOptions struct {
	TemplatesDir string
	// RateLimit is requests per minute per IP; zero disables the global limiter.
	RateLimit int
	// LoginLimit is login attempts per ten minutes per IP; zero disables it.
	LoginLimit int
	AccessLog  bool
}

// NewApp builds the fiber app with middleware and every route mounted.
func NewApp(d *Deps, opt AppOptions) *fiber.App {
	engine := html.New(opt.TemplatesDir, ".html")

	app := fiber.New(fiber.Config{
		Views:     engine,
		BodyLimit: 1 << 20, // 1 MiB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok && fe.Code < fiber.StatusInternalServerError {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		},
	})

	app.Use(requestid.New())
	if opt.AccessLog {
		app.Use(logger.New())
	}
	app.Use(helmet.New())
	if opt.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opt.RateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
			},
		}))
	}

	Register(app, d, opt)
	return app
}

// Register mounts the API routes on app.
func Register(app *fiber.App, d *Deps, opt AppOptions) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	user := RequireUser(d.Auth)
	admin := RequireAdmin()

	api := app.Group("/api/v1")

	login := []fiber.Handler{}
	if opt.LoginLimit > 0 {
		login = append(login, limiter.New(limiter.Config{
			Max:        opt.LoginLimit,
			Expiration: 10 * time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.login.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
			},
		}))
	}
	api.Post("/register", d.AuthHandler.Register)
	api.Post("/login", append(login, d.AuthHandler.Login)...)
	api.Post("/logout", user, d.AuthHandler.Logout)
	api.Get("/profile", user, d.AuthHandler.Profile)

	api.Get("/categories", d.CategoryHandler.List)
	api.Get("/products", d.ProductHandler.List)
	api.Get("/products/:id", d.ProductHandler.Detail)
	api.Get("/products/:id/reviews", d.ProductHandler.ListReviews)
	api.Post("/products/:id/reviews", user, d.ProductHandler.CreateReview)

	api.Post("/checkout", user, d.CheckoutHandler.Place)
	api.Get("/checkouts", user, d.CheckoutHandler.List)

	api.Get("/orders", user, d.OrderHandler.List)
	api.Post("/orders", user, d.OrderHandler.Create)
	api.Get("/orders/:id", user, d.OrderHandler.Get)
	api.Get("/orders/:id/receipt", user, d.OrderHandler.Receipt)

	api.Post("/coupons/validate", user, d.CouponHandler.Validate)
	api.Get("/coupons/:code", user, d.CouponHandler.Get)
	api.Get("/coupon/user", user, d.CouponHandler.Mine)

	adm := api.Group("/admin", user, admin)
	adm.Post("/products", d.AdminHandler.CreateProduct)
	adm.Put("/products/:id", d.AdminHandler.UpdateProduct)
	adm.Get("/inventory", d.AdminHandler.LowStock)
	adm.Put("/inventory/:id", d.AdminHandler.SetStock)
	adm.Post("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
}
