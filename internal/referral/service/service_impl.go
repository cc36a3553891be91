package service

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	referraldomain "github.com/paddybishop/draw2real-magic-world/internal/referral/domain"
	"github.com/paddybishop/draw2real-magic-world/pkg/db"
)

// codeAlphabet avoids lookalike characters so codes survive being read
// aloud or copied from a screenshot.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const codeLength = 8

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Cfg     config.Config
	Repo    referraldomain.Repository
	Credits creditsdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	bonus   int64
	repo    referraldomain.Repository
	credits creditsdomain.Service
}

func New(p Params) referraldomain.Service {
	bonus := p.Cfg.ReferralBonusCredits
	if bonus <= 0 {
		bonus = 3
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("referral.service"),
		genID:   p.GenID,
		bonus:   bonus,
		repo:    p.Repo,
		credits: p.Credits,
	}
}

func (s *Service) GetCode(ctx context.Context, req referraldomain.GetCodeRequest) (referraldomain.ReferralCode, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return referraldomain.ReferralCode{}, referraldomain.ErrInvalidUser
	}

	if existing, err := s.repo.FindCodeByUser(ctx, s.db, userID); err != nil {
		return referraldomain.ReferralCode{}, err
	} else if existing != nil {
		return *existing, nil
	}

	code := referraldomain.ReferralCode{
		UserID:    userID,
		Code:      generateCode(),
		CreatedAt: time.Now().UTC(),
	}
	inserted, err := s.repo.InsertCode(ctx, s.db, &code)
	if err != nil && db.IsDuplicateKeyErr(err) {
		// Generated code collided with another user's; try a fresh one.
		code.Code = generateCode()
		inserted, err = s.repo.InsertCode(ctx, s.db, &code)
	}
	if err != nil {
		return referraldomain.ReferralCode{}, err
	}
	if !inserted {
		// Another request minted the code first; read theirs.
		existing, err := s.repo.FindCodeByUser(ctx, s.db, userID)
		if err != nil {
			return referraldomain.ReferralCode{}, err
		}
		if existing == nil {
			return referraldomain.ReferralCode{}, referraldomain.ErrCodeNotFound
		}
		return *existing, nil
	}

	s.log.Info("referral code minted", zap.String("user_id", userID))
	return code, nil
}

func (s *Service) Redeem(ctx context.Context, req referraldomain.RedeemRequest) (referraldomain.RedeemResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return referraldomain.RedeemResponse{}, referraldomain.ErrInvalidUser
	}
	codeValue := strings.ToUpper(strings.TrimSpace(req.Code))
	if codeValue == "" {
		return referraldomain.RedeemResponse{}, referraldomain.ErrInvalidCode
	}

	code, err := s.repo.FindCodeByValue(ctx, s.db, codeValue)
	if err != nil {
		return referraldomain.RedeemResponse{}, err
	}
	if code == nil {
		return referraldomain.RedeemResponse{}, referraldomain.ErrCodeNotFound
	}
	if code.UserID == userID {
		return referraldomain.RedeemResponse{}, referraldomain.ErrSelfReferral
	}

	// The redemption row and both bonus grants commit together, so a
	// failed grant rolls the row back and the redeemer can retry.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.InsertRedemption(ctx, tx, &referraldomain.ReferralRedemption{
			ID:             s.genID.Generate(),
			Code:           codeValue,
			ReferrerUserID: code.UserID,
			RedeemerUserID: userID,
			CreatedAt:      time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return referraldomain.ErrAlreadyRedeemed
		}

		for _, grantee := range []string{userID, code.UserID} {
			if _, err := s.credits.GrantTx(ctx, tx, creditsdomain.GrantRequest{
				UserID:      grantee,
				Amount:      s.bonus,
				Kind:        creditsdomain.KindReferral,
				Description: "referral bonus",
				Metadata:    map[string]any{"code": codeValue},
			}); err != nil {
				s.log.Error("referral bonus grant failed",
					zap.String("user_id", grantee),
					zap.String("code", codeValue),
					zap.Error(err),
				)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return referraldomain.RedeemResponse{}, err
	}

	s.log.Info("referral redeemed",
		zap.String("redeemer", userID),
		zap.String("referrer", code.UserID),
	)
	return referraldomain.RedeemResponse{
		ReferrerUserID: code.UserID,
		BonusCredits:   s.bonus,
	}, nil
}

func generateCode() string {
	buf := make([]byte, codeLength)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
