package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/paddybishop/draw2real-magic-world/internal/auth"
	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	drawingdomain "github.com/paddybishop/draw2real-magic-world/internal/drawing/domain"
	gallerydomain "github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	generationdomain "github.com/paddybishop/draw2real-magic-world/internal/generation/domain"
	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
	referraldomain "github.com/paddybishop/draw2real-magic-world/internal/referral/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrNotConfigured):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, creditsdomain.ErrInsufficientCredits),
		errors.Is(err, generationdomain.ErrNoCredits):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "no_credits",
			Message: "not enough credits",
		}
	case errors.Is(err, generationdomain.ErrNoDrawing):
		return http.StatusBadRequest, errorPayload{
			Type:    "no_drawing",
			Message: "no drawing captured",
		}
	case errors.Is(err, generationdomain.ErrGenerationInFlight):
		return http.StatusConflict, errorPayload{
			Type:    "generation_in_flight",
			Message: "a generation is already running",
		}
	case errors.Is(err, referraldomain.ErrAlreadyRedeemed):
		return http.StatusConflict, errorPayload{
			Type:    "already_redeemed",
			Message: "a referral code was already redeemed",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
		}
	case errors.Is(err, generationdomain.ErrStorageUnavailable),
		errors.Is(err, paymentdomain.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, drawingdomain.ErrInvalidPayload),
		errors.Is(err, gallerydomain.ErrInvalidImageURL),
		errors.Is(err, creditsdomain.ErrInvalidAmount),
		errors.Is(err, creditsdomain.ErrInvalidKind),
		errors.Is(err, referraldomain.ErrInvalidCode),
		errors.Is(err, referraldomain.ErrSelfReferral),
		errors.Is(err, paymentdomain.ErrInvalidPackage),
		errors.Is(err, paymentdomain.ErrInvalidSignature),
		errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, drawingdomain.ErrNoDrawing),
		errors.Is(err, gallerydomain.ErrNotFound),
		errors.Is(err, generationdomain.ErrNotFound),
		errors.Is(err, creditsdomain.ErrTransactionNotFound),
		errors.Is(err, paymentdomain.ErrNotReceiptable),
		errors.Is(err, referraldomain.ErrCodeNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog maps an error to a (class, code) pair for request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "ok", payload.Type
	}
}
