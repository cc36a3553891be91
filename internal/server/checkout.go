package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
)

type createCheckoutRequest struct {
	PackageID string `json:"package_id"`
}

// CreateCheckout opens a hosted checkout session for a credit package.
func (s *Server) CreateCheckout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.paymentSvc.CreateCheckout(c.Request.Context(), paymentdomain.CreateCheckoutRequest{
		UserID:    user.ID,
		UserEmail: user.Email,
		PackageID: strings.TrimSpace(req.PackageID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session})
}
