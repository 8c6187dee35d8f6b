package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/openbankingng/monobridge/app/controllers"
	"github.com/openbankingng/monobridge/internal/pkg/constants"
)

// HttpRouter installs the webhook receiver and the health probe. The webhook
// route is deliberately outside the rate-limited /api group: Mono retries on
// 429 the same way it retries on 5xx, and throttling redeliveries would only
// stretch the redelivery window.
type HttpRouter struct {
	webhook *controllers.WebhookController
	health  *controllers.HealthController
}

func NewHttpRouter(webhook *controllers.WebhookController, health *controllers.HealthController) *HttpRouter {
	return &HttpRouter{webhook: webhook, health: health}
}

func (h *HttpRouter) InstallRouter(app *fiber.App) {
	app.Post(constants.WebhookRoute, h.webhook.HandleMonoWebhook)
	app.Get(constants.HealthRoute, h.health.HandleHealth)
}
