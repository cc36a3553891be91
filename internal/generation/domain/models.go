package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Attempt is one run of the describe-synthesize-persist pipeline.
type Attempt struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID            string       `gorm:"not null;index" json:"user_id"`
	State             State        `gorm:"type:text;not null" json:"state"`
	Description       string       `gorm:"type:text;not null;default:''" json:"description"`
	OriginalImageURL  string       `gorm:"type:text;not null;default:''" json:"original_image_url"`
	GeneratedImageURL string       `gorm:"type:text;not null;default:''" json:"generated_image_url"`
	ErrorDetail       string       `gorm:"type:text;not null;default:''" json:"error_detail,omitempty"`
	StartedAt         time.Time    `gorm:"not null" json:"started_at"`
	FinishedAt        *time.Time   `json:"finished_at,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Attempt) TableName() string { return "generation_attempts" }
