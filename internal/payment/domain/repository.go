package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertEvent records the event unless (provider, event_id) was seen
	// before. Returns false for the duplicate.
	InsertEvent(ctx context.Context, db *gorm.DB, event *PaymentEvent) (bool, error)
}
