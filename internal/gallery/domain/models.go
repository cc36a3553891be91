package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// GalleryImage is one completed generation shown in the user's gallery.
type GalleryImage struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID            string       `gorm:"not null;index" json:"user_id"`
	OriginalImageURL  string       `gorm:"type:text;not null;default:''" json:"original_image_url"`
	GeneratedImageURL string       `gorm:"type:text;not null" json:"generated_image_url"`
	Prompt            string       `gorm:"type:text;not null;default:''" json:"prompt"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (GalleryImage) TableName() string { return "gallery_images" }
