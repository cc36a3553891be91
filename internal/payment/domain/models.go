package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PaymentEvent is a processed provider webhook event. The unique
// (provider, event_id) pair makes webhook delivery idempotent: a retried
// event inserts zero rows and grants zero credits.
type PaymentEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	Provider  string            `gorm:"not null;uniqueIndex:ux_payment_events_provider_event,priority:1" json:"provider"`
	EventID   string            `gorm:"not null;uniqueIndex:ux_payment_events_provider_event,priority:2" json:"event_id"`
	EventType string            `gorm:"not null" json:"event_type"`
	UserID    string            `gorm:"not null;default:''" json:"user_id"`
	Credits   int64             `gorm:"not null;default:0" json:"credits"`
	Payload   datatypes.JSONMap `json:"payload,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PaymentEvent) TableName() string { return "payment_events" }
