package webhook

import (
	"time"

	"github.com/openbankingng/monobridge/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EventFilter narrows ListEvents. Zero values mean "no constraint".
type EventFilter struct {
	EventType string
	AccountID string
	Since     *time.Time
	Until     *time.Time
	Limit     int
}

// Repository provides DB operations used by the webhook event service.
type Repository interface {
	CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	GetEventByEventID(eventID string) (*models.WebhookEvent, error)
	ListEvents(filter EventFilter) ([]models.WebhookEvent, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a webhook event repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// CreateEventIfNotExists inserts the event unless a row with the same
// event_id already exists. The unique index resolves racing duplicate
// deliveries at the database; there is no check-then-insert window.
func (r *gormRepository) CreateEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.Where("event_id = ?", event.EventID).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) GetEventByEventID(eventID string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	if err := r.db.Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *gormRepository) ListEvents(filter EventFilter) ([]models.WebhookEvent, error) {
	q := r.db.Model(&models.WebhookEvent{})
	if filter.EventType != "" {
		q = q.Where("event_type = ?", filter.EventType)
	}
	if filter.AccountID != "" {
		q = q.Where("account_id = ?", filter.AccountID)
	}
	if filter.Since != nil {
		q = q.Where("received_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		q = q.Where("received_at < ?", *filter.Until)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var events []models.WebhookEvent
	err := q.Order("received_at ASC, id ASC").Find(&events).Error
	return events, err
}
