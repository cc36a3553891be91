package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	generationdomain "github.com/paddybishop/draw2real-magic-world/internal/generation/domain"
)

// StartGeneration runs the full pipeline for the captured drawing and
// returns the terminal attempt. One credit is charged per attempt,
// including attempts that end up failed.
func (s *Server) StartGeneration(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	attempt, err := s.generationSvc.Start(c.Request.Context(), generationdomain.StartRequest{
		UserID: user.ID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": attempt})
}

func (s *Server) GetGeneration(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	attempt, err := s.generationSvc.Get(c.Request.Context(), generationdomain.GetRequest{
		UserID: user.ID,
		ID:     strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": attempt})
}
