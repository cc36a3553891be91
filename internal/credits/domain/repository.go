package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// TransactionCursor is the decoded seek position for transaction listings.
type TransactionCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListTransactionsFilter struct {
	UserID string
	Cursor *TransactionCursor
	Limit  int
}

type Repository interface {
	// EnsureAccount inserts a zero-balance row when none exists.
	EnsureAccount(ctx context.Context, db *gorm.DB, userID string) error
	FindAccount(ctx context.Context, db *gorm.DB, userID string) (*UserCredit, error)
	// DeductBalance decrements the balance only when it is sufficient.
	// Returns false when the guard rejected the update.
	DeductBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) (bool, error)
	// AddBalance upserts the account and adds amount to its balance.
	AddBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error
	InsertTransaction(ctx context.Context, db *gorm.DB, txn *CreditTransaction) error
	FindTransaction(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*CreditTransaction, error)
	ListTransactions(ctx context.Context, db *gorm.DB, filter ListTransactionsFilter) ([]*CreditTransaction, error)
}
