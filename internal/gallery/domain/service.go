package domain

import (
	"context"
	"errors"

	"github.com/paddybishop/draw2real-magic-world/pkg/db/pagination"
)

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidImageURL = errors.New("invalid_image_url")
	ErrNotFound        = errors.New("not_found")
)

type AddImageRequest struct {
	UserID            string
	OriginalImageURL  string
	GeneratedImageURL string
	Prompt            string
}

type ListImagesRequest struct {
	UserID string
	Page   pagination.Pagination
}

type ListImagesResponse struct {
	pagination.PageInfo
	Images []GalleryImage `json:"images"`
}

type GetImageRequest struct {
	UserID string
	ID     string
}

type Service interface {
	Add(context.Context, AddImageRequest) (GalleryImage, error)
	// List returns the user's images newest first.
	List(context.Context, ListImagesRequest) (ListImagesResponse, error)
	GetByID(context.Context, GetImageRequest) (GalleryImage, error)
}
