package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	creditsrepo "github.com/paddybishop/draw2real-magic-world/internal/credits/repository"
	creditsservice "github.com/paddybishop/draw2real-magic-world/internal/credits/service"
	referraldomain "github.com/paddybishop/draw2real-magic-world/internal/referral/domain"
	"github.com/paddybishop/draw2real-magic-world/internal/referral/repository"
)

type fixture struct {
	svc     referraldomain.Service
	credits creditsdomain.Service
	db      *gorm.DB
	node    *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&creditsdomain.UserCredit{},
		&creditsdomain.CreditTransaction{},
		&referraldomain.ReferralCode{},
		&referraldomain.ReferralRedemption{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	creditsSvc := creditsservice.New(creditsservice.Params{
		DB: db, Log: log, GenID: node, Repo: creditsrepo.Provide(),
	})

	return &fixture{
		credits: creditsSvc,
		db:      db,
		node:    node,
		svc: New(Params{
			DB:      db,
			Log:     log,
			GenID:   node,
			Cfg:     config.Config{ReferralBonusCredits: 3},
			Repo:    repository.Provide(),
			Credits: creditsSvc,
		}),
	}
}

func (f *fixture) serviceWithCredits(credits creditsdomain.Service) referraldomain.Service {
	return New(Params{
		DB:      f.db,
		Log:     zap.NewNop(),
		GenID:   f.node,
		Cfg:     config.Config{ReferralBonusCredits: 3},
		Repo:    repository.Provide(),
		Credits: credits,
	})
}

// flakyCredits fails a fixed number of grants before delegating.
type flakyCredits struct {
	creditsdomain.Service
	failGrants int
}

func (f *flakyCredits) GrantTx(ctx context.Context, tx *gorm.DB, req creditsdomain.GrantRequest) (creditsdomain.UserCredit, error) {
	if f.failGrants > 0 {
		f.failGrants--
		return creditsdomain.UserCredit{}, errors.New("grant unavailable")
	}
	return f.Service.GrantTx(ctx, tx, req)
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	account, err := f.credits.GetBalance(context.Background(), creditsdomain.GetBalanceRequest{UserID: userID})
	require.NoError(t, err)
	return account.Credits
}

func TestGetCodeIsStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, first.Code, 8)

	second, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)

	other, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "user-2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, other.Code)
}

func TestRedeemCreditsBothSides(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "referrer"})
	require.NoError(t, err)

	resp, err := f.svc.Redeem(ctx, referraldomain.RedeemRequest{UserID: "friend", Code: code.Code})
	require.NoError(t, err)
	assert.Equal(t, "referrer", resp.ReferrerUserID)
	assert.Equal(t, int64(3), resp.BonusCredits)

	assert.Equal(t, int64(3), f.balance(t, "referrer"))
	assert.Equal(t, int64(3), f.balance(t, "friend"))
}

func TestRedeemIsLowercaseAndWhitespaceTolerant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "referrer"})
	require.NoError(t, err)

	sloppy := "  " + strings.ToLower(code.Code) + " "
	_, err = f.svc.Redeem(ctx, referraldomain.RedeemRequest{UserID: "friend", Code: sloppy})
	assert.NoError(t, err)
}

func TestRedeemOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	codeA, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "referrer-a"})
	require.NoError(t, err)
	codeB, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "referrer-b"})
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, referraldomain.RedeemRequest{UserID: "friend", Code: codeA.Code})
	require.NoError(t, err)

	// Same code again.
	_, err = f.svc.Redeem(ctx, referraldomain.RedeemRequest{UserID: "friend", Code: codeA.Code})
	assert.ErrorIs(t, err, referraldomain.ErrAlreadyRedeemed)

	// A different code does not help either.
	_, err = f.svc.Redeem(ctx, referraldomain.RedeemRequest{UserID: "friend", Code: codeB.Code})
	assert.ErrorIs(t, err, referraldomain.ErrAlreadyRedeemed)

	// No double crediting happened.
	assert.Equal(t, int64(3), f.balance(t, "friend"))
	assert.Equal(t, int64(3), f.balance(t, "referrer-a"))
	assert.Equal(t, int64(0), f.balance(t, "referrer-b"))
}

func TestRedeemRetryAfterFailedGrant(t *testing.T) {
	f := newFixture(t)
	svc := f.serviceWithCredits(&flakyCredits{Service: f.credits, failGrants: 1})
	ctx := context.Background()

	code, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "referrer"})
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, referraldomain.RedeemRequest{UserID: "friend", Code: code.Code})
	require.Error(t, err)
	assert.Equal(t, int64(0), f.balance(t, "friend"))
	assert.Equal(t, int64(0), f.balance(t, "referrer"))

	// The failed grant rolled the redemption row back, so the retry
	// credits both sides instead of hitting ErrAlreadyRedeemed.
	resp, err := svc.Redeem(ctx, referraldomain.RedeemRequest{UserID: "friend", Code: code.Code})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.BonusCredits)
	assert.Equal(t, int64(3), f.balance(t, "friend"))
	assert.Equal(t, int64(3), f.balance(t, "referrer"))
}

func TestRedeemOwnCodeRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	code, err := f.svc.GetCode(ctx, referraldomain.GetCodeRequest{UserID: "user-1"})
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, referraldomain.RedeemRequest{UserID: "user-1", Code: code.Code})
	assert.ErrorIs(t, err, referraldomain.ErrSelfReferral)
	assert.Equal(t, int64(0), f.balance(t, "user-1"))
}

func TestRedeemUnknownCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Redeem(context.Background(), referraldomain.RedeemRequest{UserID: "friend", Code: "NOSUCHCD"})
	assert.ErrorIs(t, err, referraldomain.ErrCodeNotFound)

	_, err = f.svc.Redeem(context.Background(), referraldomain.RedeemRequest{UserID: "friend", Code: "  "})
	assert.ErrorIs(t, err, referraldomain.ErrInvalidCode)
}
