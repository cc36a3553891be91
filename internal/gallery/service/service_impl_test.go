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

	gallerydomain "github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	"github.com/paddybishop/draw2real-magic-world/internal/gallery/repository"
	"github.com/paddybishop/draw2real-magic-world/pkg/db/pagination"
)

func newTestService(t *testing.T) gallerydomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&gallerydomain.GalleryImage{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func TestAddAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	image, err := svc.Add(ctx, gallerydomain.AddImageRequest{
		UserID:            "user-1",
		OriginalImageURL:  "https://cdn.example.com/originals/1.png",
		GeneratedImageURL: "https://cdn.example.com/generated/1.png",
		Prompt:            "a purple dinosaur in a meadow",
	})
	require.NoError(t, err)
	require.NotZero(t, image.ID)

	got, err := svc.GetByID(ctx, gallerydomain.GetImageRequest{UserID: "user-1", ID: image.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, image.GeneratedImageURL, got.GeneratedImageURL)
	assert.Equal(t, image.Prompt, got.Prompt)

	// Other users cannot see it.
	_, err = svc.GetByID(ctx, gallerydomain.GetImageRequest{UserID: "user-2", ID: image.ID.String()})
	assert.ErrorIs(t, err, gallerydomain.ErrNotFound)
}

func TestAddValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, gallerydomain.AddImageRequest{GeneratedImageURL: "https://x/y.png"})
	assert.ErrorIs(t, err, gallerydomain.ErrInvalidUser)

	_, err = svc.Add(ctx, gallerydomain.AddImageRequest{UserID: "user-1"})
	assert.ErrorIs(t, err, gallerydomain.ErrInvalidImageURL)

	// The original image is optional: its upload is best effort.
	image, err := svc.Add(ctx, gallerydomain.AddImageRequest{
		UserID:            "user-1",
		GeneratedImageURL: "https://cdn.example.com/generated/2.png",
	})
	require.NoError(t, err)
	assert.Empty(t, image.OriginalImageURL)
}

func TestListNewestFirstWithPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var last gallerydomain.GalleryImage
	for i := 0; i < 5; i++ {
		image, err := svc.Add(ctx, gallerydomain.AddImageRequest{
			UserID:            "user-1",
			GeneratedImageURL: fmt.Sprintf("https://cdn.example.com/generated/%d.png", i),
		})
		require.NoError(t, err)
		last = image
	}

	first, err := svc.List(ctx, gallerydomain.ListImagesRequest{
		UserID: "user-1",
		Page:   pagination.Pagination{PageSize: 3},
	})
	require.NoError(t, err)
	require.Len(t, first.Images, 3)
	require.True(t, first.HasMore)
	assert.Equal(t, last.ID, first.Images[0].ID)

	second, err := svc.List(ctx, gallerydomain.ListImagesRequest{
		UserID: "user-1",
		Page:   pagination.Pagination{PageSize: 3, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.Images, 2)
	assert.False(t, second.HasMore)

	seen := map[snowflake.ID]bool{}
	for _, img := range append(first.Images, second.Images...) {
		assert.False(t, seen[img.ID])
		seen[img.ID] = true
	}
}

func TestListScopedToUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, gallerydomain.AddImageRequest{UserID: "user-1", GeneratedImageURL: "https://x/a.png"})
	require.NoError(t, err)
	_, err = svc.Add(ctx, gallerydomain.AddImageRequest{UserID: "user-2", GeneratedImageURL: "https://x/b.png"})
	require.NoError(t, err)

	resp, err := svc.List(ctx, gallerydomain.ListImagesRequest{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, resp.Images, 1)
	assert.Equal(t, "user-1", resp.Images[0].UserID)
}
