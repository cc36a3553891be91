package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paddybishop/draw2real-magic-world/internal/usercontext"
)

// AuthRequired validates the bearer token and stores the authenticated
// user on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Request = c.Request.WithContext(usercontext.WithUser(c.Request.Context(), user))
		c.Next()
	}
}

func currentUser(c *gin.Context) (usercontext.User, bool) {
	return usercontext.UserFromContext(c.Request.Context())
}
