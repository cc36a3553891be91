package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/paddybishop/draw2real-magic-world/internal/clock"
	"github.com/paddybishop/draw2real-magic-world/internal/config"
	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	drawingdomain "github.com/paddybishop/draw2real-magic-world/internal/drawing/domain"
	gallerydomain "github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	generationdomain "github.com/paddybishop/draw2real-magic-world/internal/generation/domain"
	"github.com/paddybishop/draw2real-magic-world/internal/locks"
	obsmetrics "github.com/paddybishop/draw2real-magic-world/internal/observability/metrics"
	"github.com/paddybishop/draw2real-magic-world/internal/storage"
	"github.com/paddybishop/draw2real-magic-world/pkg/retry"
)

// generationLockTTL bounds how long a crashed pipeline can block the
// user's next attempt.
const generationLockTTL = 5 * time.Minute

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Cfg         config.Config
	Clock       clock.Clock
	Repo        generationdomain.Repository
	Credits     creditsdomain.Service
	Drawings    drawingdomain.Store
	Gallery     gallerydomain.Service
	Describer   generationdomain.Describer
	Synthesizer generationdomain.Synthesizer
	Fetcher     generationdomain.Fetcher
	Store       storage.Store                 `optional:"true"`
	Locker      *locks.Locker                 `optional:"true"`
	Metrics     *obsmetrics.GenerationMetrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	cost        int64
	clock       clock.Clock
	repo        generationdomain.Repository
	credits     creditsdomain.Service
	drawings    drawingdomain.Store
	gallery     gallerydomain.Service
	describer   generationdomain.Describer
	synthesizer generationdomain.Synthesizer
	fetcher     generationdomain.Fetcher
	store       storage.Store
	locker      *locks.Locker
	metrics     *obsmetrics.GenerationMetrics
	storeRetry  retry.Policy
}

func New(p Params) generationdomain.Service {
	cost := p.Cfg.GenerationCost
	if cost <= 0 {
		cost = 1
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("generation.service"),
		genID:       p.GenID,
		cost:        cost,
		clock:       p.Clock,
		repo:        p.Repo,
		credits:     p.Credits,
		drawings:    p.Drawings,
		gallery:     p.Gallery,
		describer:   p.Describer,
		synthesizer: p.Synthesizer,
		fetcher:     p.Fetcher,
		store:       p.Store,
		locker:      p.Locker,
		metrics:     p.Metrics,
		storeRetry:  retry.DefaultPolicy(),
	}
}

func (s *Service) Start(ctx context.Context, req generationdomain.StartRequest) (generationdomain.Attempt, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return generationdomain.Attempt{}, generationdomain.ErrInvalidUser
	}
	if s.store == nil {
		return generationdomain.Attempt{}, generationdomain.ErrStorageUnavailable
	}

	// One attempt per user at a time, enforced server side rather than
	// by a disabled UI button.
	lockKey := "generation:" + userID
	token, ok, err := s.locker.TryLock(ctx, lockKey, generationLockTTL)
	if err != nil {
		return generationdomain.Attempt{}, err
	}
	if !ok {
		return generationdomain.Attempt{}, generationdomain.ErrGenerationInFlight
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.log.Warn("generation lock release failed", zap.String("user_id", userID), zap.Error(err))
		}
	}()

	drawing, err := s.drawings.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, drawingdomain.ErrNoDrawing) {
			return generationdomain.Attempt{}, generationdomain.ErrNoDrawing
		}
		return generationdomain.Attempt{}, err
	}

	// Charge for the attempt before any external call. Attempts are
	// charged regardless of outcome; failed pipelines do not refund.
	_, err = s.credits.Deduct(ctx, creditsdomain.DeductRequest{
		UserID:      userID,
		Amount:      s.cost,
		Description: "image generation",
	})
	if err != nil {
		if errors.Is(err, creditsdomain.ErrInsufficientCredits) {
			return generationdomain.Attempt{}, generationdomain.ErrNoCredits
		}
		return generationdomain.Attempt{}, err
	}

	started := s.clock.Now().UTC()
	attempt := generationdomain.Attempt{
		ID:        s.genID.Generate(),
		UserID:    userID,
		State:     generationdomain.StateIdle,
		StartedAt: started,
		CreatedAt: started,
	}
	if err := s.transition(ctx, &attempt, generationdomain.StateDescribing, true); err != nil {
		return generationdomain.Attempt{}, err
	}

	s.runPipeline(ctx, &attempt, drawing)

	elapsed := s.clock.Now().UTC().Sub(started)
	s.metrics.RecordAttempt(string(attempt.State), elapsed)
	s.log.Info("generation attempt finished",
		zap.String("user_id", userID),
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("state", string(attempt.State)),
		zap.Duration("elapsed", elapsed),
	)
	return attempt, nil
}

// runPipeline drives the attempt to a terminal state. Failures inside
// the pipeline land in StateFailed on the attempt, not in an error.
func (s *Service) runPipeline(ctx context.Context, attempt *generationdomain.Attempt, drawing drawingdomain.Drawing) {
	description, err := s.describer.Describe(ctx, drawing.Data)
	if err != nil {
		s.fail(ctx, attempt, "could not understand the drawing", err)
		return
	}
	attempt.Description = description

	if err := s.transition(ctx, attempt, generationdomain.StateSynthesizing, false); err != nil {
		s.fail(ctx, attempt, "internal error", err)
		return
	}

	providerURL, err := s.synthesizer.Synthesize(ctx, description)
	if err != nil {
		s.fail(ctx, attempt, "could not create the image", err)
		return
	}

	if err := s.transition(ctx, attempt, generationdomain.StatePersisting, false); err != nil {
		s.fail(ctx, attempt, "internal error", err)
		return
	}

	// Original upload is best effort: a missing original never costs
	// the user their generated image.
	originalKey := storage.ObjectKey("originals", attempt.UserID, int64(attempt.ID), description, attempt.StartedAt)
	contentType := drawing.ContentType
	if contentType == "" {
		contentType = "image/png"
	}
	if url, err := s.store.Put(ctx, originalKey, drawing.Data, contentType); err != nil {
		s.log.Warn("original upload failed",
			zap.String("attempt_id", attempt.ID.String()),
			zap.Error(err),
		)
	} else {
		attempt.OriginalImageURL = url
	}

	generatedKey := storage.ObjectKey("generated", attempt.UserID, int64(attempt.ID), description, attempt.StartedAt)
	var generatedURL string
	err = retry.Do(ctx, s.storeRetry, func(ctx context.Context) error {
		data, err := s.fetcher.Fetch(ctx, providerURL)
		if err != nil {
			return err
		}
		url, err := s.store.Put(ctx, generatedKey, data, "image/png")
		if err != nil {
			return err
		}
		generatedURL = url
		return nil
	})
	if err != nil {
		s.fail(ctx, attempt, "could not save the image", err)
		return
	}
	attempt.GeneratedImageURL = generatedURL

	// The gallery row is the catalog, not the artifact. Losing it keeps
	// the image reachable, so a write failure does not fail the attempt.
	if _, err := s.gallery.Add(ctx, gallerydomain.AddImageRequest{
		UserID:            attempt.UserID,
		OriginalImageURL:  attempt.OriginalImageURL,
		GeneratedImageURL: attempt.GeneratedImageURL,
		Prompt:            attempt.Description,
	}); err != nil {
		s.log.Error("gallery record write failed",
			zap.String("attempt_id", attempt.ID.String()),
			zap.Error(err),
		)
	}

	if err := s.transition(ctx, attempt, generationdomain.StateSucceeded, false); err != nil {
		s.fail(ctx, attempt, "internal error", err)
		return
	}

	if err := s.drawings.Clear(ctx, attempt.UserID); err != nil {
		s.log.Warn("drawing clear failed", zap.String("user_id", attempt.UserID), zap.Error(err))
	}
}

// transition validates the edge, stamps terminal times and persists the
// attempt. insert writes a fresh row instead of updating.
func (s *Service) transition(ctx context.Context, attempt *generationdomain.Attempt, next generationdomain.State, insert bool) error {
	state, err := generationdomain.Transition(attempt.State, next)
	if err != nil {
		return err
	}
	attempt.State = state
	if state.Terminal() {
		finished := s.clock.Now().UTC()
		attempt.FinishedAt = &finished
	}

	if insert {
		return s.repo.Insert(ctx, s.db, attempt)
	}
	return s.repo.Update(ctx, s.db, attempt)
}

func (s *Service) fail(ctx context.Context, attempt *generationdomain.Attempt, message string, cause error) {
	s.log.Warn("generation step failed",
		zap.String("attempt_id", attempt.ID.String()),
		zap.String("state", string(attempt.State)),
		zap.Error(cause),
	)

	attempt.ErrorDetail = message
	if err := s.transition(ctx, attempt, generationdomain.StateFailed, false); err != nil {
		s.log.Error("failed-state write failed",
			zap.String("attempt_id", attempt.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) Get(ctx context.Context, req generationdomain.GetRequest) (generationdomain.Attempt, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return generationdomain.Attempt{}, generationdomain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return generationdomain.Attempt{}, generationdomain.ErrNotFound
	}

	attempt, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return generationdomain.Attempt{}, err
	}
	if attempt == nil {
		return generationdomain.Attempt{}, generationdomain.ErrNotFound
	}
	return *attempt, nil
}
