package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	obsmetrics "github.com/paddybishop/draw2real-magic-world/internal/observability/metrics"
	"github.com/paddybishop/draw2real-magic-world/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    creditsdomain.Repository
	Metrics *obsmetrics.GenerationMetrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    creditsdomain.Repository
	metrics *obsmetrics.GenerationMetrics
}

func New(p Params) creditsdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("credits.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) GetBalance(ctx context.Context, req creditsdomain.GetBalanceRequest) (creditsdomain.UserCredit, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return creditsdomain.UserCredit{}, creditsdomain.ErrInvalidUser
	}

	if err := s.repo.EnsureAccount(ctx, s.db, userID); err != nil {
		return creditsdomain.UserCredit{}, err
	}

	account, err := s.repo.FindAccount(ctx, s.db, userID)
	if err != nil {
		return creditsdomain.UserCredit{}, err
	}
	if account == nil {
		return creditsdomain.UserCredit{UserID: userID}, nil
	}
	return *account, nil
}

func (s *Service) Deduct(ctx context.Context, req creditsdomain.DeductRequest) (creditsdomain.UserCredit, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return creditsdomain.UserCredit{}, creditsdomain.ErrInvalidUser
	}
	if req.Amount <= 0 {
		return creditsdomain.UserCredit{}, creditsdomain.ErrInvalidAmount
	}

	var account *creditsdomain.UserCredit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.EnsureAccount(ctx, tx, userID); err != nil {
			return err
		}

		ok, err := s.repo.DeductBalance(ctx, tx, userID, req.Amount)
		if err != nil {
			return err
		}
		if !ok {
			return creditsdomain.ErrInsufficientCredits
		}

		if err := s.repo.InsertTransaction(ctx, tx, &creditsdomain.CreditTransaction{
			ID:          s.genID.Generate(),
			UserID:      userID,
			Amount:      -req.Amount,
			Kind:        creditsdomain.KindUsage,
			Description: req.Description,
			Metadata:    datatypes.JSONMap(req.Metadata),
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return err
		}

		account, err = s.repo.FindAccount(ctx, tx, userID)
		return err
	})
	if err != nil {
		return creditsdomain.UserCredit{}, err
	}

	s.metrics.RecordCreditMutation(string(creditsdomain.KindUsage))
	s.log.Info("credits deducted",
		zap.String("user_id", userID),
		zap.Int64("amount", req.Amount),
		zap.Int64("balance", account.Credits),
	)
	return *account, nil
}

func (s *Service) Grant(ctx context.Context, req creditsdomain.GrantRequest) (creditsdomain.UserCredit, error) {
	var account creditsdomain.UserCredit
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.GrantTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return creditsdomain.UserCredit{}, err
	}
	return account, nil
}

func (s *Service) GrantTx(ctx context.Context, tx *gorm.DB, req creditsdomain.GrantRequest) (creditsdomain.UserCredit, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return creditsdomain.UserCredit{}, creditsdomain.ErrInvalidUser
	}
	if req.Amount <= 0 {
		return creditsdomain.UserCredit{}, creditsdomain.ErrInvalidAmount
	}
	if !req.Kind.Valid() || req.Kind == creditsdomain.KindUsage {
		return creditsdomain.UserCredit{}, creditsdomain.ErrInvalidKind
	}

	if err := s.repo.AddBalance(ctx, tx, userID, req.Amount); err != nil {
		return creditsdomain.UserCredit{}, err
	}

	if err := s.repo.InsertTransaction(ctx, tx, &creditsdomain.CreditTransaction{
		ID:          s.genID.Generate(),
		UserID:      userID,
		Amount:      req.Amount,
		Kind:        req.Kind,
		Description: req.Description,
		Metadata:    datatypes.JSONMap(req.Metadata),
		CreatedAt:   time.Now().UTC(),
	}); err != nil {
		return creditsdomain.UserCredit{}, err
	}

	account, err := s.repo.FindAccount(ctx, tx, userID)
	if err != nil {
		return creditsdomain.UserCredit{}, err
	}

	s.metrics.RecordCreditMutation(string(req.Kind))
	s.log.Info("credits granted",
		zap.String("user_id", userID),
		zap.String("kind", string(req.Kind)),
		zap.Int64("amount", req.Amount),
		zap.Int64("balance", account.Credits),
	)
	return *account, nil
}

func (s *Service) GetTransaction(ctx context.Context, req creditsdomain.GetTransactionRequest) (creditsdomain.CreditTransaction, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return creditsdomain.CreditTransaction{}, creditsdomain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return creditsdomain.CreditTransaction{}, creditsdomain.ErrTransactionNotFound
	}

	txn, err := s.repo.FindTransaction(ctx, s.db, userID, id)
	if err != nil {
		return creditsdomain.CreditTransaction{}, err
	}
	if txn == nil {
		return creditsdomain.CreditTransaction{}, creditsdomain.ErrTransactionNotFound
	}
	return *txn, nil
}

func (s *Service) ListTransactions(ctx context.Context, req creditsdomain.ListTransactionsRequest) (creditsdomain.ListTransactionsResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return creditsdomain.ListTransactionsResponse{}, creditsdomain.ErrInvalidUser
	}

	var cursor *creditsdomain.TransactionCursor
	if strings.TrimSpace(req.Page.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.Page.PageToken)
		if err != nil {
			return creditsdomain.ListTransactionsResponse{}, err
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return creditsdomain.ListTransactionsResponse{}, err
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil {
			return creditsdomain.ListTransactionsResponse{}, err
		}
		cursor = &creditsdomain.TransactionCursor{ID: id, CreatedAt: createdAt}
	}

	limit := req.Page.Limit()
	items, err := s.repo.ListTransactions(ctx, s.db, creditsdomain.ListTransactionsFilter{
		UserID: userID,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		return creditsdomain.ListTransactionsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, limit, func(item *creditsdomain.CreditTransaction) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo.HasMore && len(items) > limit {
		items = items[:limit]
	}

	txns := make([]creditsdomain.CreditTransaction, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		txns = append(txns, *item)
	}

	return creditsdomain.ListTransactionsResponse{
		PageInfo:     *pageInfo,
		Transactions: txns,
	}, nil
}
