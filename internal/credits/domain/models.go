package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// TransactionKind classifies ledger mutations.
type TransactionKind string

const (
	// KindUsage is a deduction for one generation attempt.
	KindUsage TransactionKind = "usage"
	// KindPurchase is a grant from a completed checkout.
	KindPurchase TransactionKind = "purchase"
	// KindReferral is a grant from a redeemed referral code.
	KindReferral TransactionKind = "referral"
)

func (k TransactionKind) Valid() bool {
	switch k {
	case KindUsage, KindPurchase, KindReferral:
		return true
	}
	return false
}

// UserCredit is the current balance for one user. The balance is the
// authoritative value; transactions are the audit trail.
type UserCredit struct {
	UserID    string    `gorm:"primaryKey" json:"user_id"`
	Credits   int64     `gorm:"not null;default:0" json:"credits"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UserCredit) TableName() string { return "user_credits" }

// CreditTransaction is one immutable ledger row. Amount is negative for
// usage and positive for grants.
type CreditTransaction struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID      string            `gorm:"not null;index" json:"user_id"`
	Amount      int64             `gorm:"not null" json:"amount"`
	Kind        TransactionKind   `gorm:"type:text;not null" json:"kind"`
	Description string            `gorm:"type:text;not null;default:''" json:"description"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CreditTransaction) TableName() string { return "credit_transactions" }
