package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/symphonyguild/guildsite/app/controllers"
)

const defaultAPIRateLimit = 60

type ApiRouter struct {
	deps Dependencies
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	limit := h.deps.APIRateLimit
	if limit <= 0 {
		limit = defaultAPIRateLimit
	}
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	mc := controllers.NewMembershipController(h.deps.Submissions)
	membership := api.Group("/membership")
	membership.Get("/tiers", mc.HandleTiers)
	membership.Get("/submit", mc.HandleSubmitInfo)
	membership.Post("/submit", mc.HandleSubmit)

	ec := controllers.NewEnrollmentController(h.deps.Sessions, h.deps.Submissions.Catalog(), h.deps.Payment)
	wizard := membership.Group("/enrollment")
	wizard.Get("/", ec.HandleState)
	wizard.Delete("/", ec.HandleReset)
	wizard.Post("/tier", ec.HandleSelectTier)
	wizard.Post("/fields", ec.HandleSetFields)
	wizard.Post("/next", ec.HandleNext)
	wizard.Post("/back", ec.HandleBack)
	wizard.Post("/payment", ec.HandlePayment)

	qc := controllers.NewQuickBooksController(h.deps.Sessions, h.deps.QuickBooks, h.deps.QuickBooksRealmID)
	quickbooks := api.Group("/quickbooks")
	quickbooks.Get("/connect", adminAuth(h.deps), qc.HandleConnect)
	quickbooks.Get("/callback", qc.HandleCallback)
}

func NewApiRouter(deps Dependencies) *ApiRouter {
	return &ApiRouter{deps: deps}
}
