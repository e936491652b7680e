package router

import (
	"strconv"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/symphonyguild/guildsite/app/repository"
	"github.com/symphonyguild/guildsite/internal/pkg/billing"
	"github.com/symphonyguild/guildsite/internal/pkg/enrollment"
	"github.com/symphonyguild/guildsite/internal/pkg/env"
	"github.com/symphonyguild/guildsite/internal/pkg/features"
	"github.com/symphonyguild/guildsite/internal/pkg/jobqueue"
	"github.com/symphonyguild/guildsite/internal/pkg/mail"
	"github.com/symphonyguild/guildsite/internal/pkg/membership"
	"github.com/symphonyguild/guildsite/internal/pkg/metrics/counter"
	"github.com/symphonyguild/guildsite/internal/pkg/session"
	"github.com/symphonyguild/guildsite/internal/pkg/submission"
	"github.com/symphonyguild/guildsite/views"
)

// BuildDependencies wires the services for the configured flags. cacheClient
// and db are optional. Without a cache, sessions and billing tokens stay in
// process memory and emails are sent inline. Without a db, so do submissions.
func BuildDependencies(flags features.Flags, cacheClient *goredis.Client, db *gorm.DB) Dependencies {
	catalog := membership.NewDefaultCatalog()
	metrics := counter.NewMetrics(prometheus.NewRegistry())

	opts := []submission.Option{submission.WithMetrics(metrics)}

	deps := Dependencies{
		Metrics:       metrics,
		AdminUser:     env.GetEnv("ADMIN_USER", "admin"),
		AdminPassword: env.GetEnv("ADMIN_PASSWORD", "test"),
	}
	if limit, err := strconv.Atoi(env.GetEnv("API_RATE_LIMIT", "")); err == nil {
		deps.APIRateLimit = limit
	}

	switch flags.BillingProvider {
	case features.ProviderMock:
		fiberlog.Info("[Billing] Using the mock billing client")
		syncer := billing.NewService(billing.NewMockClient(billing.DefaultMockLatency), membership.CurrentYear, billing.MockItemID)
		opts = append(opts, submission.WithSyncer(syncer))
	case features.ProviderQuickBooks:
		var tokens billing.TokenStore
		if cacheClient != nil {
			tokens = billing.NewRedisTokenStore(cacheClient)
		}
		qb := billing.NewQuickBooksClientFromEnv(tokens)
		if !qb.IsConfigured() {
			fiberlog.Warn("[Billing] QuickBooks credentials are incomplete, sync requests will fail")
		}
		opts = append(opts, submission.WithSyncer(billing.NewService(qb, membership.CurrentYear, flags.QuickBooksItemID)))
		deps.QuickBooks = qb
		deps.QuickBooksRealmID = qb.RealmID
	}

	if db != nil {
		opts = append(opts, submission.WithStore(repository.NewSubmissionRepository(db)))
	} else {
		fiberlog.Warn("[Database] No database configured, submissions are kept in memory")
	}

	if flags.EnableEmailNotifications {
		var mailer mail.Mailer = mail.NewSMTPMailerFromEnv()
		if cacheClient != nil {
			workers, _ := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "2"))
			deps.Jobs = jobqueue.NewQueue(cacheClient, workers)
			mailer = jobqueue.NewMailQueue(deps.Jobs, mailer)
		}
		opts = append(opts, submission.WithMailer(mailer, mail.NewTemplates(views.FS)))
	}

	deps.Submissions = submission.NewService(catalog, flags, opts...)

	if cacheClient != nil {
		deps.Sessions = session.NewSessionStore(cacheClient)
	} else {
		deps.Sessions = session.NewMemorySessionStore()
	}

	if flags.MockPaymentMode {
		deps.Payment = enrollment.NewMockPayment(deps.Submissions)
	} else {
		deps.Payment = deps.Submissions
	}

	return deps
}
