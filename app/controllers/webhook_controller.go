package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openbankingng/monobridge/app/models"
	"github.com/openbankingng/monobridge/internal/pkg/accounts"
	"github.com/openbankingng/monobridge/internal/pkg/metrics/counter"
	"github.com/openbankingng/monobridge/internal/pkg/webhook"
)

const webhookTimeout = 15 * time.Second

// WebhookController ingests Mono webhook deliveries: verify the signature
// over the raw body, parse, store idempotently, acknowledge. The store is the
// only shared mutable state; it is injected at construction.
type WebhookController struct {
	events   *webhook.Service
	accounts *accounts.Service
	secret   string
	count    func(field string)
}

// NewWebhookController wires the webhook endpoint. count may be nil when no
// counter backend is available (tests, minimal deployments).
func NewWebhookController(events *webhook.Service, accountSvc *accounts.Service, secret string, count func(string)) *WebhookController {
	if count == nil {
		count = func(string) {}
	}
	return &WebhookController{
		events:   events,
		accounts: accountSvc,
		secret:   secret,
		count:    count,
	}
}

// CountToRedis records webhook outcomes via the Redis-backed counters,
// swallowing errors off the hot path.
func CountToRedis(field string) {
	if err := counter.AddWebhookOutcome(field); err != nil {
		log.Printf("webhook counter %s failed: %v", field, err)
	}
}

// HandleMonoWebhook is POST /mono/webhook.
func (wc *WebhookController) HandleMonoWebhook(c *fiber.Ctx) error {
	// Exact signed bytes, captured before any parsing.
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := firstHeaderValue(c, "mono-webhook-signature", "mono-webhook-secret")

	if !webhook.VerifyMonoWebhookSignature(rawBody, signature, wc.secret) {
		wc.count(counter.FieldRejected)
		// No payload detail back to an unauthenticated caller.
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	envelope, err := webhook.ParseEnvelope(rawBody)
	if err != nil {
		wc.count(counter.FieldMalformed)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	created, stored, err := wc.events.RecordEvent(ctx, webhook.RecordEventInput{
		EventID:     webhook.DeriveEventID(envelope, rawBody),
		EventType:   envelope.EventType,
		AccountID:   envelope.AccountID(),
		PayloadJSON: string(rawBody),
	})
	if err != nil {
		// Unconfirmed write: never acknowledge, let the sender redeliver.
		wc.count(counter.FieldStoreError)
		log.Printf("webhook persist failed for %s: %v", envelope.EventType, err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "webhook_persist_failed"})
	}

	if created {
		wc.count(counter.FieldStored)
		wc.applySideEffects(ctx, envelope)
	} else {
		wc.count(counter.FieldDuplicate)
		log.Printf("duplicate webhook delivery for event %s", stored.EventID)
	}

	// Identical ack for new and duplicate deliveries; redelivery must see
	// uniform success.
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "success"})
}

// applySideEffects maintains the local account mirror for known event types.
// The event itself is already durable; mirror failures are logged, not
// surfaced, so the sender does not redeliver an event we stored.
func (wc *WebhookController) applySideEffects(ctx context.Context, envelope *webhook.Envelope) {
	if wc.accounts == nil {
		return
	}

	var err error
	switch envelope.EventType {
	case models.EventAccountConnected:
		var data *webhook.AccountConnectedData
		if data, err = envelope.AccountConnected(); err == nil {
			err = wc.accounts.Connect(ctx, data.ID, data.Customer)
		}
	case models.EventAccountUpdated:
		var data *webhook.AccountUpdatedData
		if data, err = envelope.AccountUpdated(); err == nil {
			err = wc.accounts.UpdateFromWebhook(ctx, data.Account.ID,
				data.Account.Institution.Name, data.Account.Institution.BankCode, data.Meta.DataStatus)
		}
	case models.EventAccountUnlinked:
		var data *webhook.AccountUnlinkedData
		if data, err = envelope.AccountUnlinked(); err == nil {
			err = wc.accounts.Unlink(ctx, data.Account.ID)
		}
	case models.EventJobCompleted, models.EventJobFailed:
		var data *webhook.JobData
		if data, err = envelope.Job(); err == nil {
			log.Printf("data job %s for account %s: %s", envelope.EventType, data.Account, data.Status)
		}
	default:
		log.Printf("stored webhook event with unhandled type %s", envelope.EventType)
	}

	if err != nil && !errors.Is(err, webhook.ErrMalformedPayload) {
		log.Printf("webhook side effect failed for %s: %v", envelope.EventType, err)
	}
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}
