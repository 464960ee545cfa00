package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	repo "github.com/mywatercloset/api/pkg/repository/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event is a processed webhook delivery. The (provider, event_id) pair is unique.
type Event struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Provider    string    `gorm:"size:20;not null;uniqueIndex:idx_webhook_provider_event"`
	EventID     string    `gorm:"size:255;not null;uniqueIndex:idx_webhook_provider_event"`
	EventType   string    `gorm:"size:100;not null"`
	BookingID   uuid.UUID `gorm:"type:uuid;index"`
	ProcessedAt time.Time `gorm:"not null"`
}

func (Event) TableName() string { return "webhook_events" }

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) repo.Repository {
	return &repository{db: db}
}

func (r *repository) Record(
	ctx context.Context,
	provider, eventID, eventType string,
	bookingID uuid.UUID,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Event{
			Provider:    provider,
			EventID:     eventID,
			EventType:   eventType,
			BookingID:   bookingID,
			ProcessedAt: time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
