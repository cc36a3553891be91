package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) EnsureAccount(ctx context.Context, db *gorm.DB, userID string) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_credits (user_id, credits, created_at, updated_at)
		 VALUES (?, 0, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
		now,
		now,
	).Error
}

func (r *repo) FindAccount(ctx context.Context, db *gorm.DB, userID string) (*domain.UserCredit, error) {
	var account domain.UserCredit
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, credits, created_at, updated_at
		 FROM user_credits WHERE user_id = ?`,
		userID,
	).Scan(&account).Error
	if err != nil {
		return nil, err
	}
	if account.UserID == "" {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) DeductBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE user_credits
		 SET credits = credits - ?, updated_at = ?
		 WHERE user_id = ? AND credits >= ?`,
		amount,
		time.Now().UTC(),
		userID,
		amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) AddBalance(ctx context.Context, db *gorm.DB, userID string, amount int64) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_credits (user_id, credits, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE
		 SET credits = user_credits.credits + excluded.credits, updated_at = excluded.updated_at`,
		userID,
		amount,
		now,
		now,
	).Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *domain.CreditTransaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO credit_transactions (id, user_id, amount, kind, description, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.UserID,
		txn.Amount,
		string(txn.Kind),
		txn.Description,
		txn.Metadata,
		txn.CreatedAt,
	).Error
}

func (r *repo) FindTransaction(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.CreditTransaction, error) {
	var txn domain.CreditTransaction
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, amount, kind, description, metadata, created_at
		 FROM credit_transactions WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, filter domain.ListTransactionsFilter) ([]*domain.CreditTransaction, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.CreditTransaction{}).
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

	var txns []*domain.CreditTransaction
	if err := stmt.Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
