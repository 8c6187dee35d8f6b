package webhook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openbankingng/monobridge/app/models"
	"gorm.io/gorm"
)

// ErrEventNotFound is returned by GetEvent for unknown event ids.
var ErrEventNotFound = errors.New("webhook event not found")

// storeAttempts bounds internal retries of a failed insert before the
// failure is surfaced to the sender as retryable.
const storeAttempts = 3
const storeRetryDelay = 200 * time.Millisecond

// Service provides idempotent recording and querying of webhook events.
type Service struct {
	repo Repository
}

// NewService creates a webhook event service from an injected repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NewServiceFromDB creates a webhook event service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db))
}

// RecordEventInput carries one verified delivery into the store.
type RecordEventInput struct {
	EventID     string
	EventType   string
	AccountID   string
	PayloadJSON string
}

// RecordEvent persists a verified event at most once per EventID. It returns
// created=false for redeliveries, which callers must still acknowledge.
// Transient storage errors are retried a bounded number of times; a final
// error means the write is unconfirmed and must not be acknowledged.
func (s *Service) RecordEvent(ctx context.Context, in RecordEventInput) (bool, *models.WebhookEvent, error) {
	eventID := strings.TrimSpace(in.EventID)
	eventType := strings.TrimSpace(in.EventType)
	if eventID == "" || eventType == "" {
		return false, nil, errors.New("event_id and event_type are required")
	}

	event := &models.WebhookEvent{
		EventID:        eventID,
		EventType:      eventType,
		AccountID:      strings.TrimSpace(in.AccountID),
		PayloadJSON:    in.PayloadJSON,
		SignatureValid: true,
	}

	var lastErr error
	for attempt := 0; attempt < storeAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return false, nil, ctx.Err()
			case <-time.After(storeRetryDelay):
			}
			// Create mutates the receiver on partial failure; retry clean.
			event.ID = 0
		}
		created, stored, err := s.repo.CreateEventIfNotExists(event)
		if err == nil {
			return created, stored, nil
		}
		lastErr = err
	}
	return false, nil, lastErr
}

// GetEvent returns the stored event for a sender-facing event id.
func (s *Service) GetEvent(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	_ = ctx
	id := strings.TrimSpace(eventID)
	if id == "" {
		return nil, ErrEventNotFound
	}
	event, err := s.repo.GetEventByEventID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// ListEvents returns stored events ordered by received_at ascending.
func (s *Service) ListEvents(ctx context.Context, filter EventFilter) ([]models.WebhookEvent, error) {
	_ = ctx
	return s.repo.ListEvents(filter)
}
