package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, image *domain.GalleryImage) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO gallery_images (id, user_id, original_image_url, generated_image_url, prompt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		image.ID,
		image.UserID,
		image.OriginalImageURL,
		image.GeneratedImageURL,
		image.Prompt,
		image.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.GalleryImage, error) {
	var image domain.GalleryImage
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, original_image_url, generated_image_url, prompt, created_at
		 FROM gallery_images WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&image).Error
	if err != nil {
		return nil, err
	}
	if image.ID == 0 {
		return nil, nil
	}
	return &image, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListImagesFilter) ([]*domain.GalleryImage, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.GalleryImage{}).
		Where("user_id = ?", filter.UserID)

	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var images []*domain.GalleryImage
	if err := stmt.Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}
