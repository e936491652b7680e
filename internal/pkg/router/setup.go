package router

import (
	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"github.com/symphonyguild/guildsite/app/controllers"
	"github.com/symphonyguild/guildsite/internal/pkg/enrollment"
	"github.com/symphonyguild/guildsite/internal/pkg/jobqueue"
	"github.com/symphonyguild/guildsite/internal/pkg/metrics/counter"
	"github.com/symphonyguild/guildsite/internal/pkg/submission"
)

// Router registers a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// Dependencies are the services the routes are built on.
type Dependencies struct {
	Submissions *submission.Service
	Sessions    *fibersession.Store
	Payment     enrollment.PaymentStep
	Metrics     *counter.Metrics
	// Jobs delivers confirmation emails when a cache is available. The caller
	// starts it.
	Jobs *jobqueue.Queue

	// QuickBooks is nil unless QuickBooks is the billing provider.
	QuickBooks        controllers.QuickBooksAuthorizer
	QuickBooksRealmID string

	AdminUser     string
	AdminPassword string
	// APIRateLimit is the number of /api requests per client and minute.
	APIRateLimit int
}

func InstallRouter(app *fiber.App, deps Dependencies) {
	setup(app, NewHttpRouter(deps), NewApiRouter(deps))
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
