package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/paddybishop/draw2real-magic-world/internal/generation/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, attempt *domain.Attempt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO generation_attempts (
			id, user_id, state, description, original_image_url, generated_image_url,
			error_detail, started_at, finished_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID,
		attempt.UserID,
		string(attempt.State),
		attempt.Description,
		attempt.OriginalImageURL,
		attempt.GeneratedImageURL,
		attempt.ErrorDetail,
		attempt.StartedAt,
		attempt.FinishedAt,
		attempt.CreatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, attempt *domain.Attempt) error {
	return db.WithContext(ctx).Exec(
		`UPDATE generation_attempts
		 SET state = ?, description = ?, original_image_url = ?, generated_image_url = ?,
		     error_detail = ?, finished_at = ?
		 WHERE id = ?`,
		string(attempt.State),
		attempt.Description,
		attempt.OriginalImageURL,
		attempt.GeneratedImageURL,
		attempt.ErrorDetail,
		attempt.FinishedAt,
		attempt.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.Attempt, error) {
	var attempt domain.Attempt
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, state, description, original_image_url, generated_image_url,
		        error_detail, started_at, finished_at, created_at
		 FROM generation_attempts WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&attempt).Error
	if err != nil {
		return nil, err
	}
	if attempt.ID == 0 {
		return nil, nil
	}
	return &attempt, nil
}
