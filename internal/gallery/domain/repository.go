package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ImageCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListImagesFilter struct {
	UserID string
	Cursor *ImageCursor
	Limit  int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, image *GalleryImage) error
	FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*GalleryImage, error)
	List(ctx context.Context, db *gorm.DB, filter ListImagesFilter) ([]*GalleryImage, error)
}
