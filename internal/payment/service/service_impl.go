package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
	"github.com/paddybishop/draw2real-magic-world/internal/payment/stripe"
	"github.com/paddybishop/draw2real-magic-world/internal/providers/pdf"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Cfg     config.Config
	Pricing *config.PricingHolder
	Repo    paymentdomain.Repository
	Credits creditsdomain.Service
	Stripe  *stripe.Client
	PDF     *pdf.Generator
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	currency string
	pricing  *config.PricingHolder
	repo     paymentdomain.Repository
	credits  creditsdomain.Service
	stripe   *stripe.Client
	pdf      *pdf.Generator
}

func New(p Params) paymentdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		currency: p.Cfg.Stripe.Currency,
		pricing:  p.Pricing,
		repo:     p.Repo,
		credits:  p.Credits,
		stripe:   p.Stripe,
		pdf:      p.PDF,
	}
}

func (s *Service) CreateCheckout(ctx context.Context, req paymentdomain.CreateCheckoutRequest) (paymentdomain.CheckoutSession, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return paymentdomain.CheckoutSession{}, paymentdomain.ErrInvalidUser
	}

	pkg, ok := s.pricing.Package(strings.TrimSpace(req.PackageID))
	if !ok {
		return paymentdomain.CheckoutSession{}, paymentdomain.ErrInvalidPackage
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, userID, pkg)
	if err != nil {
		return paymentdomain.CheckoutSession{}, err
	}

	s.log.Info("checkout session created",
		zap.String("user_id", userID),
		zap.String("package_id", pkg.ID),
		zap.String("session_id", session.ID),
	)
	return paymentdomain.CheckoutSession{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *Service) HandleWebhook(ctx context.Context, req paymentdomain.HandleWebhookRequest) (paymentdomain.WebhookResult, error) {
	if err := s.stripe.Verify(req.Payload, req.Headers); err != nil {
		return paymentdomain.WebhookResult{}, err
	}

	checkout, err := s.stripe.Parse(req.Payload)
	if err != nil {
		return paymentdomain.WebhookResult{}, err
	}

	// The dedupe row and the grant commit together: a failed grant rolls
	// the event row back so Stripe's retry can be credited.
	var inserted bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		inserted, err = s.repo.InsertEvent(ctx, tx, &paymentdomain.PaymentEvent{
			ID:        s.genID.Generate(),
			Provider:  "stripe",
			EventID:   checkout.EventID,
			EventType: checkout.EventType,
			UserID:    checkout.UserID,
			Credits:   checkout.Credits,
			Payload: datatypes.JSONMap{
				"session_id": checkout.SessionID,
				"package_id": checkout.PackageID,
			},
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		_, err = s.credits.GrantTx(ctx, tx, creditsdomain.GrantRequest{
			UserID:      checkout.UserID,
			Amount:      checkout.Credits,
			Kind:        creditsdomain.KindPurchase,
			Description: "credit purchase",
			Metadata: map[string]any{
				"session_id": checkout.SessionID,
				"package_id": checkout.PackageID,
				"event_id":   checkout.EventID,
			},
		})
		return err
	})
	if err != nil {
		return paymentdomain.WebhookResult{}, err
	}
	if !inserted {
		// Stripe retries deliveries; a replay grants nothing.
		s.log.Info("webhook event replayed",
			zap.String("event_id", checkout.EventID),
		)
		return paymentdomain.WebhookResult{EventID: checkout.EventID, Handled: false}, nil
	}

	s.log.Info("purchase credited",
		zap.String("user_id", checkout.UserID),
		zap.Int64("credits", checkout.Credits),
		zap.String("event_id", checkout.EventID),
	)
	return paymentdomain.WebhookResult{
		EventID: checkout.EventID,
		Handled: true,
		UserID:  checkout.UserID,
		Credits: checkout.Credits,
	}, nil
}

func (s *Service) Receipt(ctx context.Context, req paymentdomain.ReceiptRequest) ([]byte, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, paymentdomain.ErrInvalidUser
	}

	txn, err := s.credits.GetTransaction(ctx, creditsdomain.GetTransactionRequest{
		UserID: userID,
		ID:     strings.TrimSpace(req.TransactionID),
	})
	if err != nil {
		if errors.Is(err, creditsdomain.ErrTransactionNotFound) {
			return nil, paymentdomain.ErrNotReceiptable
		}
		return nil, err
	}
	if txn.Kind != creditsdomain.KindPurchase {
		return nil, paymentdomain.ErrNotReceiptable
	}

	packageID, _ := txn.Metadata["package_id"].(string)
	amountPaid := "-"
	packageName := "Credit pack"
	if pkg, ok := s.pricing.Package(packageID); ok {
		packageName = pkg.Name
		amountPaid = formatAmount(pkg.AmountMinor, s.currency)
	}

	return s.pdf.GenerateReceipt(ctx, pdf.ReceiptData{
		ReceiptNumber: txn.ID.String(),
		DatePaid:      txn.CreatedAt.Format("2 January 2006"),
		BuyerEmail:    strings.TrimSpace(req.UserEmail),
		PackageName:   packageName,
		Credits:       txn.Amount,
		AmountPaid:    amountPaid,
	})
}

func formatAmount(minor int64, currency string) string {
	symbol := strings.ToUpper(currency) + " "
	switch strings.ToLower(currency) {
	case "gbp":
		symbol = "£"
	case "usd":
		symbol = "$"
	case "eur":
		symbol = "€"
	}
	return fmt.Sprintf("%s%d.%02d", symbol, minor/100, minor%100)
}
