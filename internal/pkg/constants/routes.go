package constants

// Static route constants
const (
	WebhookRoute = "/mono/webhook"
	HealthRoute  = "/health"
	APIPrefix    = "/api"
)
