package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	gallerydomain "github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	"github.com/paddybishop/draw2real-magic-world/pkg/db/pagination"
)

func (s *Server) ListGallery(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.gallerySvc.List(c.Request.Context(), gallerydomain.ListImagesRequest{
		UserID: user.ID,
		Page:   query,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetGalleryImage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	image, err := s.gallerySvc.GetByID(c.Request.Context(), gallerydomain.GetImageRequest{
		UserID: user.ID,
		ID:     strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": image})
}
