package repository

import (
	"context"

	"github.com/paddybishop/draw2real-magic-world/internal/referral/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCode(ctx context.Context, db *gorm.DB, code *domain.ReferralCode) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO referral_codes (user_id, code, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		code.UserID,
		code.Code,
		code.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindCodeByUser(ctx context.Context, db *gorm.DB, userID string) (*domain.ReferralCode, error) {
	var code domain.ReferralCode
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, code, created_at FROM referral_codes WHERE user_id = ?`,
		userID,
	).Scan(&code).Error
	if err != nil {
		return nil, err
	}
	if code.UserID == "" {
		return nil, nil
	}
	return &code, nil
}

func (r *repo) FindCodeByValue(ctx context.Context, db *gorm.DB, value string) (*domain.ReferralCode, error) {
	var code domain.ReferralCode
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, code, created_at FROM referral_codes WHERE code = ?`,
		value,
	).Scan(&code).Error
	if err != nil {
		return nil, err
	}
	if code.UserID == "" {
		return nil, nil
	}
	return &code, nil
}

func (r *repo) InsertRedemption(ctx context.Context, db *gorm.DB, redemption *domain.ReferralRedemption) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO referral_redemptions (id, code, referrer_user_id, redeemer_user_id, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (redeemer_user_id) DO NOTHING`,
		redemption.ID,
		redemption.Code,
		redemption.ReferrerUserID,
		redemption.RedeemerUserID,
		redemption.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
