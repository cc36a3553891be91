package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ReferralCode is a user's shareable invite code. One code per user,
// minted on first request.
type ReferralCode struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	Code      string    `gorm:"not null;uniqueIndex" json:"code"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ReferralCode) TableName() string { return "referral_codes" }

// ReferralRedemption records a redeemed code. A user may redeem at most
// one code ever, enforced by the unique redeemer column.
type ReferralRedemption struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	Code           string       `gorm:"not null" json:"code"`
	ReferrerUserID string       `gorm:"not null" json:"referrer_user_id"`
	RedeemerUserID string       `gorm:"not null;uniqueIndex" json:"redeemer_user_id"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ReferralRedemption) TableName() string { return "referral_redemptions" }
