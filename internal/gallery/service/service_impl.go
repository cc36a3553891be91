package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	gallerydomain "github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	"github.com/paddybishop/draw2real-magic-world/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  gallerydomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  gallerydomain.Repository
}

func New(p Params) gallerydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("gallery.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Add(ctx context.Context, req gallerydomain.AddImageRequest) (gallerydomain.GalleryImage, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return gallerydomain.GalleryImage{}, gallerydomain.ErrInvalidUser
	}
	if strings.TrimSpace(req.GeneratedImageURL) == "" {
		return gallerydomain.GalleryImage{}, gallerydomain.ErrInvalidImageURL
	}

	image := gallerydomain.GalleryImage{
		ID:                s.genID.Generate(),
		UserID:            userID,
		OriginalImageURL:  strings.TrimSpace(req.OriginalImageURL),
		GeneratedImageURL: strings.TrimSpace(req.GeneratedImageURL),
		Prompt:            strings.TrimSpace(req.Prompt),
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &image); err != nil {
		return gallerydomain.GalleryImage{}, err
	}

	s.log.Info("gallery image recorded",
		zap.String("user_id", userID),
		zap.String("image_id", image.ID.String()),
	)
	return image, nil
}

func (s *Service) List(ctx context.Context, req gallerydomain.ListImagesRequest) (gallerydomain.ListImagesResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return gallerydomain.ListImagesResponse{}, gallerydomain.ErrInvalidUser
	}

	var cursor *gallerydomain.ImageCursor
	if strings.TrimSpace(req.Page.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.Page.PageToken)
		if err != nil {
			return gallerydomain.ListImagesResponse{}, err
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return gallerydomain.ListImagesResponse{}, err
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil {
			return gallerydomain.ListImagesResponse{}, err
		}
		cursor = &gallerydomain.ImageCursor{ID: id, CreatedAt: createdAt}
	}

	limit := req.Page.Limit()
	items, err := s.repo.List(ctx, s.db, gallerydomain.ListImagesFilter{
		UserID: userID,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		return gallerydomain.ListImagesResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, limit, func(item *gallerydomain.GalleryImage) string {
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

	images := make([]gallerydomain.GalleryImage, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		images = append(images, *item)
	}

	return gallerydomain.ListImagesResponse{
		PageInfo: *pageInfo,
		Images:   images,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, req gallerydomain.GetImageRequest) (gallerydomain.GalleryImage, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return gallerydomain.GalleryImage{}, gallerydomain.ErrInvalidUser
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return gallerydomain.GalleryImage{}, gallerydomain.ErrNotFound
	}

	image, err := s.repo.FindByID(ctx, s.db, userID, id)
	if err != nil {
		return gallerydomain.GalleryImage{}, err
	}
	if image == nil {
		return gallerydomain.GalleryImage{}, gallerydomain.ErrNotFound
	}
	return *image, nil
}
