package domain

import (
	"context"
	"errors"
	"net/http"
)

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidPackage   = errors.New("invalid_package")
	ErrNotConfigured    = errors.New("payments_not_configured")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrEventIgnored     = errors.New("event_ignored")
	ErrNotReceiptable   = errors.New("not_receiptable")
)

type CreateCheckoutRequest struct {
	UserID    string
	UserEmail string
	PackageID string
}

type CheckoutSession struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type HandleWebhookRequest struct {
	Payload []byte
	Headers http.Header
}

type WebhookResult struct {
	EventID string `json:"event_id"`
	// Handled is false for replayed events that were already processed.
	Handled bool   `json:"handled"`
	UserID  string `json:"user_id,omitempty"`
	Credits int64  `json:"credits,omitempty"`
}

type ReceiptRequest struct {
	UserID        string
	UserEmail     string
	TransactionID string
}

type Service interface {
	// CreateCheckout opens a provider checkout session for a credit
	// package and returns the redirect URL.
	CreateCheckout(context.Context, CreateCheckoutRequest) (CheckoutSession, error)
	// HandleWebhook verifies, records and applies one provider event.
	// Credits are granted exactly once per event.
	HandleWebhook(context.Context, HandleWebhookRequest) (WebhookResult, error)
	// Receipt renders the PDF receipt for a purchase transaction.
	Receipt(context.Context, ReceiptRequest) ([]byte, error)
}
