package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	referraldomain "github.com/paddybishop/draw2real-magic-world/internal/referral/domain"
)

type redeemReferralRequest struct {
	Code string `json:"code"`
}

// GetReferralCode returns the caller's share code, minting one on first use.
func (s *Server) GetReferralCode(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	code, err := s.referralSvc.GetCode(c.Request.Context(), referraldomain.GetCodeRequest{
		UserID: user.ID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": code})
}

func (s *Server) RedeemReferralCode(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req redeemReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	redemption, err := s.referralSvc.Redeem(c.Request.Context(), referraldomain.RedeemRequest{
		UserID: user.ID,
		Code:   strings.TrimSpace(req.Code),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": redemption})
}
