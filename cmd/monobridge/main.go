package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/openbankingng/monobridge/app/controllers"
	apiv1 "github.com/openbankingng/monobridge/internal/api/v1"
	"github.com/openbankingng/monobridge/internal/pkg/accounts"
	"github.com/openbankingng/monobridge/internal/pkg/archive"
	"github.com/openbankingng/monobridge/internal/pkg/cache"
	"github.com/openbankingng/monobridge/internal/pkg/database"
	"github.com/openbankingng/monobridge/internal/pkg/env"
	"github.com/openbankingng/monobridge/internal/pkg/mono"
	"github.com/openbankingng/monobridge/internal/pkg/router"
	"github.com/openbankingng/monobridge/internal/pkg/tools"
	"github.com/openbankingng/monobridge/internal/pkg/webhook"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	db := database.GetDB()
	events := webhook.NewServiceFromDB(db)
	mirror := accounts.NewServiceFromDB(db)
	monoClient := mono.NewClientFromEnv()

	registry := tools.NewRegistry()
	tools.RegisterBankingTools(registry, tools.Deps{
		Mono:     monoClient,
		Accounts: mirror,
		Events:   events,
		Cache:    cache.Store{},
	})

	webhookSecret := env.GetEnv("MONO_WEBHOOK_SECRET", "")
	if webhookSecret == "" {
		log.Print("MONO_WEBHOOK_SECRET is not set - all webhook deliveries will be rejected")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName:   "MonoBridge",
		BodyLimit: 1 << 20, // webhook bodies are small; 1 MiB is generous
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	if specPath := "./public/docs/v1/openapi.yml"; fileExists(specPath) {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	}

	// ROUTER
	router.InstallRouter(app, router.Deps{
		Http: router.NewHttpRouter(
			controllers.NewWebhookController(events, mirror, webhookSecret, controllers.CountToRedis),
			controllers.NewHealthController(db),
		),
		Api: router.NewApiRouter(apiv1.NewAPIServer(registry, events)),
	})

	// optional S3 event archive
	if cfg, err := archive.LoadConfig(); err != nil {
		log.Printf("event archive disabled: %v", err)
	} else if cfg.IsEnabled() {
		exporter, err := archive.NewExporter(cfg, events)
		if err != nil {
			log.Printf("event archive disabled: %v", err)
		} else {
			exporter.Start()
		}
	}

	return app
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
