package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/paddybishop/draw2real-magic-world/internal/clock"
	"github.com/paddybishop/draw2real-magic-world/internal/config"
	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	creditsrepo "github.com/paddybishop/draw2real-magic-world/internal/credits/repository"
	creditsservice "github.com/paddybishop/draw2real-magic-world/internal/credits/service"
	drawingdomain "github.com/paddybishop/draw2real-magic-world/internal/drawing/domain"
	drawingstore "github.com/paddybishop/draw2real-magic-world/internal/drawing/store"
	gallerydomain "github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	galleryrepo "github.com/paddybishop/draw2real-magic-world/internal/gallery/repository"
	galleryservice "github.com/paddybishop/draw2real-magic-world/internal/gallery/service"
	generationdomain "github.com/paddybishop/draw2real-magic-world/internal/generation/domain"
	generationrepo "github.com/paddybishop/draw2real-magic-world/internal/generation/repository"
	"github.com/paddybishop/draw2real-magic-world/internal/locks"
	"github.com/paddybishop/draw2real-magic-world/pkg/retry"
)

// -- Stubs --

type describerStub struct {
	description string
	err         error
	calls       int
}

func (d *describerStub) Describe(context.Context, []byte) (string, error) {
	d.calls++
	return d.description, d.err
}

type synthesizerStub struct {
	url   string
	err   error
	calls int
}

func (s *synthesizerStub) Synthesize(context.Context, string) (string, error) {
	s.calls++
	return s.url, s.err
}

type fetcherStub struct {
	data  []byte
	err   error
	calls int
}

func (f *fetcherStub) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	return f.data, f.err
}

type storeStub struct {
	objects  map[string][]byte
	failPut  bool
	putCalls int
}

func newStoreStub() *storeStub {
	return &storeStub{objects: map[string][]byte{}}
}

func (s *storeStub) EnsureBucket(context.Context) error { return nil }

func (s *storeStub) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.putCalls++
	if s.failPut {
		return "", errors.New("put rejected")
	}
	s.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

type failingGallery struct {
	gallerydomain.Service
}

func (failingGallery) Add(context.Context, gallerydomain.AddImageRequest) (gallerydomain.GalleryImage, error) {
	return gallerydomain.GalleryImage{}, errors.New("gallery down")
}

// -- Fixture --

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	svc         generationdomain.Service
	clock       *clock.FakeClock
	db          *gorm.DB
	credits     creditsdomain.Service
	gallery     gallerydomain.Service
	drawings    drawingdomain.Store
	describer   *describerStub
	synthesizer *synthesizerStub
	fetcher     *fetcherStub
	store       *storeStub
}

func newFixture(t *testing.T, mutate func(*Params)) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&creditsdomain.UserCredit{},
		&creditsdomain.CreditTransaction{},
		&gallerydomain.GalleryImage{},
		&generationdomain.Attempt{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()

	creditsSvc := creditsservice.New(creditsservice.Params{
		DB: db, Log: log, GenID: node, Repo: creditsrepo.Provide(),
	})
	gallerySvc := galleryservice.New(galleryservice.Params{
		DB: db, Log: log, GenID: node, Repo: galleryrepo.Provide(),
	})

	f := &fixture{
		clock:       clock.NewFakeClock(fixedNow),
		db:          db,
		credits:     creditsSvc,
		gallery:     gallerySvc,
		drawings:    drawingstore.NewMemoryStore(time.Hour),
		describer:   &describerStub{description: "A smiling purple dinosaur in a meadow."},
		synthesizer: &synthesizerStub{url: "https://provider.example.com/tmp/img.png"},
		fetcher:     &fetcherStub{data: []byte("generated-png")},
		store:       newStoreStub(),
	}

	params := Params{
		DB:          db,
		Log:         log,
		GenID:       node,
		Cfg:         config.Config{GenerationCost: 1},
		Clock:       f.clock,
		Repo:        generationrepo.Provide(),
		Credits:     creditsSvc,
		Drawings:    f.drawings,
		Gallery:     gallerySvc,
		Describer:   f.describer,
		Synthesizer: f.synthesizer,
		Fetcher:     f.fetcher,
		Store:       f.store,
	}
	if mutate != nil {
		mutate(&params)
	}

	svc := New(params)
	svc.(*Service).storeRetry = retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	f.svc = svc
	return f
}

func (f *fixture) grantCredits(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := f.credits.Grant(context.Background(), creditsdomain.GrantRequest{
		UserID: userID, Amount: amount, Kind: creditsdomain.KindPurchase,
	})
	require.NoError(t, err)
}

func (f *fixture) saveDrawing(t *testing.T, userID string) {
	t.Helper()
	require.NoError(t, f.drawings.Save(context.Background(), drawingdomain.Drawing{
		UserID:      userID,
		Data:        []byte("original-png"),
		ContentType: "image/png",
		CapturedAt:  time.Now().UTC(),
	}))
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	account, err := f.credits.GetBalance(context.Background(), creditsdomain.GetBalanceRequest{UserID: userID})
	require.NoError(t, err)
	return account.Credits
}

// -- Tests --

func TestStartHappyPath(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")

	attempt, err := f.svc.Start(ctx, generationdomain.StartRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, generationdomain.StateSucceeded, attempt.State)
	assert.Equal(t, "A smiling purple dinosaur in a meadow.", attempt.Description)
	assert.NotEmpty(t, attempt.GeneratedImageURL)
	assert.NotEmpty(t, attempt.OriginalImageURL)
	require.NotNil(t, attempt.FinishedAt)
	assert.Equal(t, fixedNow, attempt.StartedAt)
	assert.Equal(t, fixedNow, attempt.FinishedAt.UTC())
	assert.Equal(t, int64(0), f.balance(t, "user-1"))

	resp, err := f.gallery.List(ctx, gallerydomain.ListImagesRequest{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, resp.Images, 1)
	assert.Equal(t, attempt.GeneratedImageURL, resp.Images[0].GeneratedImageURL)
	assert.Equal(t, attempt.Description, resp.Images[0].Prompt)

	// The consumed drawing slot is released.
	_, err = f.drawings.Load(ctx, "user-1")
	assert.ErrorIs(t, err, drawingdomain.ErrNoDrawing)

	// The attempt is queryable afterwards.
	got, err := f.svc.Get(ctx, generationdomain.GetRequest{UserID: "user-1", ID: attempt.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, generationdomain.StateSucceeded, got.State)
}

func TestStartWithoutCredits(t *testing.T) {
	f := newFixture(t, nil)
	f.saveDrawing(t, "user-1")

	_, err := f.svc.Start(context.Background(), generationdomain.StartRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, generationdomain.ErrNoCredits)

	// Rejected before any external call.
	assert.Zero(t, f.describer.calls)
	assert.Zero(t, f.store.putCalls)
}

func TestStartWithoutDrawing(t *testing.T) {
	f := newFixture(t, nil)
	f.grantCredits(t, "user-1", 1)

	_, err := f.svc.Start(context.Background(), generationdomain.StartRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, generationdomain.ErrNoDrawing)

	// No charge when the attempt never started.
	assert.Equal(t, int64(1), f.balance(t, "user-1"))
	assert.Zero(t, f.describer.calls)
}

func TestDescribeFailureChargesCredit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")
	f.describer.err = errors.New("upstream 500")

	attempt, err := f.svc.Start(ctx, generationdomain.StartRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, generationdomain.StateFailed, attempt.State)
	assert.NotEmpty(t, attempt.ErrorDetail)
	// Attempts are charged regardless of outcome.
	assert.Equal(t, int64(0), f.balance(t, "user-1"))
	assert.Zero(t, f.synthesizer.calls)

	// The drawing stays so the user can retry without recapturing.
	_, err = f.drawings.Load(ctx, "user-1")
	assert.NoError(t, err)
}

func TestSynthesizeFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")
	f.synthesizer.err = errors.New("upstream 502")

	attempt, err := f.svc.Start(context.Background(), generationdomain.StartRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, generationdomain.StateFailed, attempt.State)
	assert.Equal(t, int64(0), f.balance(t, "user-1"))
	assert.Zero(t, f.fetcher.calls)
}

func TestGeneratedFetchRetriesThenFails(t *testing.T) {
	f := newFixture(t, nil)
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")
	f.fetcher.err = errors.New("provider url expired")

	attempt, err := f.svc.Start(context.Background(), generationdomain.StartRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, generationdomain.StateFailed, attempt.State)
	assert.Equal(t, 3, f.fetcher.calls)
	assert.Equal(t, int64(0), f.balance(t, "user-1"))
}

func TestGalleryWriteFailureStillSucceeds(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Gallery = failingGallery{}
	})
	ctx := context.Background()
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")

	attempt, err := f.svc.Start(ctx, generationdomain.StartRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, generationdomain.StateSucceeded, attempt.State)
	assert.NotEmpty(t, attempt.GeneratedImageURL)

	// The image exists even though no gallery row was written.
	resp, err := f.gallery.List(ctx, gallerydomain.ListImagesRequest{UserID: "user-1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Images)
}

func TestStartRejectsConcurrentAttempt(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	locker := locks.NewLocker(client)

	f := newFixture(t, func(p *Params) {
		p.Locker = locker
	})
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")

	// Another instance already holds the user's generation lock.
	_, ok, err := locker.TryLock(context.Background(), "generation:user-1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Start(context.Background(), generationdomain.StartRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, generationdomain.ErrGenerationInFlight)
	assert.Equal(t, int64(1), f.balance(t, "user-1"))
}

func TestStartWithoutStorageConfigured(t *testing.T) {
	f := newFixture(t, func(p *Params) {
		p.Store = nil
	})
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")

	_, err := f.svc.Start(context.Background(), generationdomain.StartRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, generationdomain.ErrStorageUnavailable)
}

func TestOriginalUploadFailureIsNonFatal(t *testing.T) {
	f := newFixture(t, nil)
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")

	// The first put is the original upload; only it fails.
	f.svc.(*Service).store = &failFirstPutStore{inner: f.store}

	attempt, err := f.svc.Start(context.Background(), generationdomain.StartRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, generationdomain.StateSucceeded, attempt.State)
	assert.Empty(t, attempt.OriginalImageURL)
	assert.NotEmpty(t, attempt.GeneratedImageURL)
}

type failFirstPutStore struct {
	inner *storeStub
	puts  int
}

func (s *failFirstPutStore) EnsureBucket(ctx context.Context) error { return nil }

func (s *failFirstPutStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	s.puts++
	if s.puts == 1 {
		return "", errors.New("original upload rejected")
	}
	return s.inner.Put(ctx, key, data, contentType)
}

func TestGetScopedToUser(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.grantCredits(t, "user-1", 1)
	f.saveDrawing(t, "user-1")

	attempt, err := f.svc.Start(ctx, generationdomain.StartRequest{UserID: "user-1"})
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, generationdomain.GetRequest{UserID: "user-2", ID: attempt.ID.String()})
	assert.ErrorIs(t, err, generationdomain.ErrNotFound)

	_, err = f.svc.Get(ctx, generationdomain.GetRequest{UserID: "user-1", ID: "not-a-number"})
	assert.ErrorIs(t, err, generationdomain.ErrNotFound)
}

func TestRepeatedAttemptsEachChargeOneCredit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.grantCredits(t, "user-1", 3)

	for i := 0; i < 3; i++ {
		f.saveDrawing(t, "user-1")
		attempt, err := f.svc.Start(ctx, generationdomain.StartRequest{UserID: "user-1"})
		require.NoError(t, err)
		require.Equal(t, generationdomain.StateSucceeded, attempt.State, fmt.Sprintf("attempt %d", i))
	}

	assert.Equal(t, int64(0), f.balance(t, "user-1"))

	f.saveDrawing(t, "user-1")
	_, err := f.svc.Start(ctx, generationdomain.StartRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, generationdomain.ErrNoCredits)
}
