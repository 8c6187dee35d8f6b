package models

import "time"

// Known Mono webhook event types. The set is open: events with types not
// listed here are stored with their opaque payload, never rejected.
const (
	EventAccountConnected = "account.connected"
	EventAccountUpdated   = "account.updated"
	EventAccountUnlinked  = "account.unlinked"
	EventJobCompleted     = "job.completed"
	EventJobFailed        = "job.failed"
)

// WebhookEvent stores verified Mono webhook payloads with deduplication
// metadata for idempotent processing. Invalid-signature requests are rejected
// before persistence, so SignatureValid is true for every stored row.
type WebhookEvent struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EventID        string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_webhook_events_event_id" json:"event_id"`
	EventType      string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	AccountID      string    `gorm:"type:varchar(191);index" json:"account_id"`
	PayloadJSON    string    `gorm:"type:longtext;not null" json:"payload_json"`
	SignatureValid bool      `gorm:"default:false" json:"signature_valid"`
	ReceivedAt     time.Time `gorm:"autoCreateTime;index" json:"received_at"`
}
