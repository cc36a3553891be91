package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertCode claims the code for the user unless one already exists.
	// Returns false when the user already has a code.
	InsertCode(ctx context.Context, db *gorm.DB, code *ReferralCode) (bool, error)
	FindCodeByUser(ctx context.Context, db *gorm.DB, userID string) (*ReferralCode, error)
	FindCodeByValue(ctx context.Context, db *gorm.DB, code string) (*ReferralCode, error)
	// InsertRedemption records the redemption. Returns false when the
	// redeemer has already redeemed a code.
	InsertRedemption(ctx context.Context, db *gorm.DB, redemption *ReferralRedemption) (bool, error)
}
