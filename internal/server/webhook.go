package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
)

// Stripe payloads are small; the limit only guards against junk traffic.
const maxWebhookBytes = 1 << 20

// StripeWebhook processes checkout completion events. The raw body is
// passed through untouched because the signature covers the exact bytes.
func (s *Server) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.HandleWebhook(c.Request.Context(), paymentdomain.HandleWebhookRequest{
		Payload: payload,
		Headers: c.Request.Header,
	})
	if err != nil {
		// Event types we do not handle get a 200 so the provider stops
		// retrying them.
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			c.JSON(http.StatusOK, gin.H{"data": paymentdomain.WebhookResult{Handled: false}})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
