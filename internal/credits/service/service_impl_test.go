package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	"github.com/paddybishop/draw2real-magic-world/internal/credits/repository"
	"github.com/paddybishop/draw2real-magic-world/pkg/db/pagination"
)

func newTestService(t *testing.T) creditsdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&creditsdomain.UserCredit{}, &creditsdomain.CreditTransaction{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestGetBalanceCreatesAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.GetBalance(ctx, creditsdomain.GetBalanceRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", account.UserID)
	assert.Equal(t, int64(0), account.Credits)

	_, err = svc.GetBalance(ctx, creditsdomain.GetBalanceRequest{})
	assert.ErrorIs(t, err, creditsdomain.ErrInvalidUser)
}

func TestGrantThenDeduct(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	account, err := svc.Grant(ctx, creditsdomain.GrantRequest{
		UserID:      "user-1",
		Amount:      10,
		Kind:        creditsdomain.KindPurchase,
		Description: "starter pack",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), account.Credits)

	account, err = svc.Deduct(ctx, creditsdomain.DeductRequest{
		UserID:      "user-1",
		Amount:      1,
		Description: "image generation",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), account.Credits)

	resp, err := svc.ListTransactions(ctx, creditsdomain.ListTransactionsRequest{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, int64(-1), resp.Transactions[0].Amount)
	assert.Equal(t, creditsdomain.KindUsage, resp.Transactions[0].Kind)
	assert.Equal(t, int64(10), resp.Transactions[1].Amount)
	assert.Equal(t, creditsdomain.KindPurchase, resp.Transactions[1].Kind)
}

func TestDeductInsufficientCredits(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deduct(ctx, creditsdomain.DeductRequest{UserID: "user-1", Amount: 1})
	assert.ErrorIs(t, err, creditsdomain.ErrInsufficientCredits)

	// The failed deduction must not leave a ledger row behind.
	resp, err := svc.ListTransactions(ctx, creditsdomain.ListTransactionsRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Transactions)

	account, err := svc.GetBalance(ctx, creditsdomain.GetBalanceRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), account.Credits)
}

func TestDeductNeverGoesNegative(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, creditsdomain.GrantRequest{
		UserID: "user-1",
		Amount: 2,
		Kind:   creditsdomain.KindReferral,
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.Deduct(ctx, creditsdomain.DeductRequest{UserID: "user-1", Amount: 1})
		require.NoError(t, err)
	}

	_, err = svc.Deduct(ctx, creditsdomain.DeductRequest{UserID: "user-1", Amount: 1})
	assert.ErrorIs(t, err, creditsdomain.ErrInsufficientCredits)
}

func TestGrantValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, creditsdomain.GrantRequest{UserID: "user-1", Amount: 0, Kind: creditsdomain.KindPurchase})
	assert.ErrorIs(t, err, creditsdomain.ErrInvalidAmount)

	_, err = svc.Grant(ctx, creditsdomain.GrantRequest{UserID: "user-1", Amount: 5, Kind: "bonus"})
	assert.ErrorIs(t, err, creditsdomain.ErrInvalidKind)

	// Usage rows only come from Deduct.
	_, err = svc.Grant(ctx, creditsdomain.GrantRequest{UserID: "user-1", Amount: 5, Kind: creditsdomain.KindUsage})
	assert.ErrorIs(t, err, creditsdomain.ErrInvalidKind)
}

func TestGetTransaction(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Grant(ctx, creditsdomain.GrantRequest{
		UserID: "user-1", Amount: 10, Kind: creditsdomain.KindPurchase, Description: "starter pack",
	})
	require.NoError(t, err)

	resp, err := svc.ListTransactions(ctx, creditsdomain.ListTransactionsRequest{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)
	id := resp.Transactions[0].ID.String()

	txn, err := svc.GetTransaction(ctx, creditsdomain.GetTransactionRequest{UserID: "user-1", ID: id})
	require.NoError(t, err)
	assert.Equal(t, "starter pack", txn.Description)

	_, err = svc.GetTransaction(ctx, creditsdomain.GetTransactionRequest{UserID: "user-2", ID: id})
	assert.ErrorIs(t, err, creditsdomain.ErrTransactionNotFound)

	_, err = svc.GetTransaction(ctx, creditsdomain.GetTransactionRequest{UserID: "user-1", ID: "zzz"})
	assert.ErrorIs(t, err, creditsdomain.ErrTransactionNotFound)
}

func TestListTransactionsPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Grant(ctx, creditsdomain.GrantRequest{
			UserID:      "user-1",
			Amount:      int64(i + 1),
			Kind:        creditsdomain.KindPurchase,
			Description: fmt.Sprintf("pack %d", i),
		})
		require.NoError(t, err)
	}

	first, err := svc.ListTransactions(ctx, creditsdomain.ListTransactionsRequest{
		UserID: "user-1",
		Page:   pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	seen := map[snowflake.ID]bool{}
	for _, txn := range first.Transactions {
		seen[txn.ID] = true
	}

	second, err := svc.ListTransactions(ctx, creditsdomain.ListTransactionsRequest{
		UserID: "user-1",
		Page:   pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.Transactions, 2)
	for _, txn := range second.Transactions {
		assert.False(t, seen[txn.ID], "page overlap on txn %d", txn.ID)
	}
}
