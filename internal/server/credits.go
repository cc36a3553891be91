package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
	"github.com/paddybishop/draw2real-magic-world/pkg/db/pagination"
)

func (s *Server) GetBalance(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	balance, err := s.creditsSvc.GetBalance(c.Request.Context(), creditsdomain.GetBalanceRequest{
		UserID: user.ID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": balance})
}

func (s *Server) ListTransactions(c *gin.Context) {
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

	resp, err := s.creditsSvc.ListTransactions(c.Request.Context(), creditsdomain.ListTransactionsRequest{
		UserID: user.ID,
		Page:   query,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetReceipt renders a PDF receipt for a purchase transaction.
func (s *Server) GetReceipt(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	transactionID := strings.TrimSpace(c.Param("id"))
	data, err := s.paymentSvc.Receipt(c.Request.Context(), paymentdomain.ReceiptRequest{
		UserID:        user.ID,
		UserEmail:     user.Email,
		TransactionID: transactionID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", transactionID))
	c.Data(http.StatusOK, "application/pdf", data)
}

func (s *Server) ListPackages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": s.pricing.Current().Packages})
}
