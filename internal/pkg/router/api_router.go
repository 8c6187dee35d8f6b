package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	apiv1 "github.com/openbankingng/monobridge/internal/api/v1"
	"github.com/openbankingng/monobridge/internal/pkg/constants"
	"github.com/openbankingng/monobridge/internal/pkg/env"
	"github.com/openbankingng/monobridge/internal/pkg/middleware"
)

type ApiRouter struct {
	server *apiv1.APIServer
}

func NewApiRouter(server *apiv1.APIServer) *ApiRouter {
	return &ApiRouter{server: server}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIPrefix, limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    limiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "MonoBridge tool API",
		})
	})

	// API v1 routes, API-key protected
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())
	apiv1.RegisterHandlers(v1, h.server)
}

// limiterStorage backs the rate limiter with Redis so limits hold across
// replicas. Fiber falls back to its in-memory store when nil.
func limiterStorage() fiber.Storage {
	if env.GetEnv("CACHE_HOST", "") == "" {
		return nil
	}
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		return nil
	}
	return redisstorage.New(redisstorage.Config{
		Host:     env.GetEnv("CACHE_HOST", "localhost"),
		Port:     port,
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		Database: 1,
	})
}
