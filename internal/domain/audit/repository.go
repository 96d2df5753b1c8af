package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Anvoria/sessionly/internal/database"
)

// Repository interface for audit persistence
type Repository interface {
	Create(ctx context.Context, event *Event) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Event, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new audit repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	return database.Classify(r.db.WithContext(ctx).Create(event).Error)
}

// ListByAccount returns the newest events of the account first
func (r *repository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Event, error) {
	var events []Event
	q := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, database.Classify(err)
	}
	return events, nil
}
