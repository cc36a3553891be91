package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/paddybishop/draw2real-magic-world/pkg/db/pagination"
)

var (
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidKind         = errors.New("invalid_kind")
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrTransactionNotFound = errors.New("transaction_not_found")
)

type GetBalanceRequest struct {
	UserID string
}

type DeductRequest struct {
	UserID      string
	Amount      int64
	Description string
	Metadata    map[string]any
}

type GrantRequest struct {
	UserID      string
	Amount      int64
	Kind        TransactionKind
	Description string
	Metadata    map[string]any
}

type GetTransactionRequest struct {
	UserID string
	ID     string
}

type ListTransactionsRequest struct {
	UserID string
	Page   pagination.Pagination
}

type ListTransactionsResponse struct {
	pagination.PageInfo
	Transactions []CreditTransaction `json:"transactions"`
}

type Service interface {
	// GetBalance returns the current balance, creating a zero-balance
	// account on first read.
	GetBalance(context.Context, GetBalanceRequest) (UserCredit, error)
	// Deduct atomically removes Amount credits and records a usage
	// transaction. Fails with ErrInsufficientCredits when the balance
	// is lower than Amount.
	Deduct(context.Context, DeductRequest) (UserCredit, error)
	// Grant adds Amount credits with the given kind.
	Grant(context.Context, GrantRequest) (UserCredit, error)
	// GrantTx is Grant running inside the caller's transaction, so a
	// grant and the row that gates it commit or roll back together.
	GrantTx(context.Context, *gorm.DB, GrantRequest) (UserCredit, error)
	GetTransaction(context.Context, GetTransactionRequest) (CreditTransaction, error)
	ListTransactions(context.Context, ListTransactionsRequest) (ListTransactionsResponse, error)
}
