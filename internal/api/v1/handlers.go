package apiv1

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openbankingng/monobridge/internal/pkg/metrics/counter"
	"github.com/openbankingng/monobridge/internal/pkg/mono"
	"github.com/openbankingng/monobridge/internal/pkg/tools"
	"github.com/openbankingng/monobridge/internal/pkg/webhook"
)

// APIServer exposes the tool registry and the stored webhook events to the
// assistant's dispatch layer.
type APIServer struct {
	registry *tools.Registry
	events   *webhook.Service
}

// NewAPIServer creates a new API server instance
func NewAPIServer(registry *tools.Registry, events *webhook.Service) *APIServer {
	return &APIServer{registry: registry, events: events}
}

// RegisterHandlers attaches all v1 routes to the given router group.
func RegisterHandlers(router fiber.Router, s *APIServer) {
	router.Get("/ping", s.GetPing)
	router.Get("/tools", s.GetTools)
	router.Post("/tools/:name", s.PostToolCall)
	router.Get("/webhook-events", s.GetWebhookEvents)
	router.Get("/webhook-stats", s.GetWebhookStats)
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ping": "pong"})
}

// GetTools lists the registered tools with their input schemas so callers
// can discover what is invocable.
func (s *APIServer) GetTools(c *fiber.Ctx) error {
	list := s.registry.List()
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"tools": list, "count": len(list)})
}

// PostToolCall invokes one tool by name with the request body as arguments.
func (s *APIServer) PostToolCall(c *fiber.Ctx) error {
	name := c.Params("name")
	args := append([]byte(nil), c.BodyRaw()...)

	result, err := s.registry.Invoke(c.Context(), name, args)
	if err != nil {
		switch {
		case errors.Is(err, tools.ErrUnknownTool):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "unknown_tool"})
		case errors.Is(err, tools.ErrInvalidArgs):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "invalid_arguments", "message": err.Error()})
		case errors.Is(err, mono.ErrUpstream):
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "error": "upstream_error", "message": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "internal_error"})
		}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true, "result": result})
}

// GetWebhookEvents lists stored events filtered by query parameters.
func (s *APIServer) GetWebhookEvents(c *fiber.Ctx) error {
	filter := webhook.EventFilter{
		EventType: c.Query("event_type"),
		AccountID: c.Query("account_id"),
		Limit:     c.QueryInt("limit"),
	}
	if raw := c.Query("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "since must be RFC3339"})
		}
		filter.Since = &t
	}
	if raw := c.Query("until"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "until must be RFC3339"})
		}
		filter.Until = &t
	}

	events, err := s.events.ListEvents(c.Context(), filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"events": events, "count": len(events)})
}

// GetWebhookStats returns the Redis-backed delivery outcome counters.
func (s *APIServer) GetWebhookStats(c *fiber.Ctx) error {
	snapshot, err := counter.Snapshot()
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "counters_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"counters": snapshot})
}
