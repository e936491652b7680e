package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/symphonyguild/guildsite/internal/pkg/cache"
	"github.com/symphonyguild/guildsite/internal/pkg/database"
	"github.com/symphonyguild/guildsite/internal/pkg/env"
	"github.com/symphonyguild/guildsite/internal/pkg/features"
	"github.com/symphonyguild/guildsite/internal/pkg/jobqueue"
	"github.com/symphonyguild/guildsite/internal/pkg/router"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		fiberlog.Info("[Server] Shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			fiberlog.Errorf("[Server] Shutdown failed: %v", err)
		}
	}()

	if err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000"))); err != nil {
		log.Fatal(err)
	}
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()

	flags, err := features.Load()
	if err != nil {
		log.Fatalf("invalid feature flags: %v", err)
	}
	fiberlog.Infof("[Features] quickbooksSync=%t mockPayment=%t emailNotifications=%t billingProvider=%s",
		flags.EnableQuickBooksSync, flags.MockPaymentMode, flags.EnableEmailNotifications, flags.BillingProvider)

	var cacheClient *goredis.Client
	if cache.Enabled() {
		if err := cache.SetupCache(); err != nil {
			fiberlog.Warnf("[Cache] %v, falling back to in-memory sessions and tokens", err)
		} else {
			cacheClient = cache.GetClient()
		}
	}

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/guildsite to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	var db *gorm.DB
	if database.Enabled() {
		if err := database.SetupDatabase(database.MigrationsPath(basePath + "migrations")); err != nil {
			log.Fatalf("database setup failed: %v", err)
		}
		db = database.GetDB()
	}

	app := fiber.New(fiber.Config{
		AppName: "guildsite",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	deps := router.BuildDependencies(flags, cacheClient, db)
	if deps.Jobs != nil {
		deps.Jobs.Start()
	}
	router.InstallRouter(app, deps)

	app.Hooks().OnShutdown(func() error {
		return closeResources(deps.Jobs, db)
	})

	return app
}

// closeResources stops the email workers before the cache they use, then
// releases the database pool.
func closeResources(jobs *jobqueue.Queue, db *gorm.DB) error {
	if jobs != nil {
		jobs.Stop()
	}

	errs := []error{cache.Close()}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
