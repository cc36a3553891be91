package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidCode     = errors.New("invalid_code")
	ErrCodeNotFound    = errors.New("code_not_found")
	ErrSelfReferral    = errors.New("self_referral")
	ErrAlreadyRedeemed = errors.New("already_redeemed")
)

type GetCodeRequest struct {
	UserID string
}

type RedeemRequest struct {
	UserID string
	Code   string
}

type RedeemResponse struct {
	ReferrerUserID string `json:"referrer_user_id"`
	BonusCredits   int64  `json:"bonus_credits"`
}

type Service interface {
	// GetCode returns the user's referral code, minting one on first use.
	GetCode(context.Context, GetCodeRequest) (ReferralCode, error)
	// Redeem credits both sides of the referral exactly once. A user can
	// redeem a single code in their lifetime and never their own.
	Redeem(context.Context, RedeemRequest) (RedeemResponse, error)
}
