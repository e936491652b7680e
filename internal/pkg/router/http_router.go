package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/monitor"
)

type HttpRouter struct {
	deps Dependencies
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// fiber metrics
	admin := adminAuth(h.deps)
	app.Get("/metrics", admin, monitor.New())
	if h.deps.Metrics != nil {
		app.Get("/metrics/prometheus", admin, adaptor.HTTPHandler(h.deps.Metrics.Handler()))
	}
}

func NewHttpRouter(deps Dependencies) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func adminAuth(deps Dependencies) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Users: map[string]string{
			deps.AdminUser: deps.AdminPassword,
		},
	})
}
