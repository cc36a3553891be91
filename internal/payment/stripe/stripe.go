package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
)

// Client talks to the Stripe REST API with form-encoded requests and
// verifies incoming webhook signatures.
type Client struct {
	cfg  config.StripeConfig
	http *http.Client
}

func NewClient(cfg config.StripeConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *Client) Configured() bool {
	return c.cfg.SecretKey != ""
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCheckoutSession opens a one-off payment session for a credit
// package. The user id and credit count ride along in metadata so the
// webhook can apply the grant without any other lookup.
func (c *Client) CreateCheckoutSession(ctx context.Context, userID string, pkg config.CreditPackage) (CheckoutSession, error) {
	if !c.Configured() {
		return CheckoutSession{}, paymentdomain.ErrNotConfigured
	}

	successURL := c.cfg.SuccessURL
	if strings.Contains(successURL, "?") {
		successURL += "&credits=" + strconv.FormatInt(pkg.Credits, 10)
	} else {
		successURL += "?credits=" + strconv.FormatInt(pkg.Credits, 10)
	}

	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("client_reference_id", userID)
	values.Set("success_url", successURL)
	values.Set("cancel_url", c.cfg.CancelURL)
	values.Set("line_items[0][quantity]", "1")
	values.Set("line_items[0][price_data][currency]", c.cfg.Currency)
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(pkg.AmountMinor, 10))
	values.Set("line_items[0][price_data][product_data][name]", pkg.Name)
	values.Set("metadata[user_id]", userID)
	values.Set("metadata[package_id]", pkg.ID)
	values.Set("metadata[credits]", strconv.FormatInt(pkg.Credits, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/checkout/sessions", strings.NewReader(values.Encode()))
	if err != nil {
		return CheckoutSession{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Idempotency-Key", "checkout:"+userID+":"+pkg.ID+":"+strconv.FormatInt(time.Now().Unix(), 10))

	resp, err := c.http.Do(req)
	if err != nil {
		return CheckoutSession{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CheckoutSession{}, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.Unmarshal(raw, &stripeErr); err == nil && stripeErr.Error.Message != "" {
			return CheckoutSession{}, fmt.Errorf("stripe checkout: %s", stripeErr.Error.Message)
		}
		return CheckoutSession{}, fmt.Errorf("stripe checkout: status %d", resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return CheckoutSession{}, err
	}
	if session.ID == "" || session.URL == "" {
		return CheckoutSession{}, paymentdomain.ErrInvalidPayload
	}
	return session, nil
}

// Verify checks the Stripe-Signature header against the webhook secret.
func (c *Client) Verify(payload []byte, headers http.Header) error {
	if c.cfg.WebhookSecret == "" {
		return paymentdomain.ErrNotConfigured
	}

	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}
	return paymentdomain.ErrInvalidSignature
}

// CompletedCheckout is the slice of a checkout.session.completed event
// the credit grant needs.
type CompletedCheckout struct {
	EventID   string
	EventType string
	SessionID string
	UserID    string
	PackageID string
	Credits   int64
}

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type checkoutSessionObject struct {
	ID                string            `json:"id"`
	ClientReferenceID string            `json:"client_reference_id"`
	PaymentStatus     string            `json:"payment_status"`
	Metadata          map[string]string `json:"metadata"`
}

// Parse extracts a completed checkout from the event payload. Events of
// any other type return ErrEventIgnored.
func (c *Client) Parse(payload []byte) (CompletedCheckout, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return CompletedCheckout{}, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return CompletedCheckout{}, paymentdomain.ErrInvalidEvent
	}
	if strings.TrimSpace(event.Type) != "checkout.session.completed" {
		return CompletedCheckout{}, paymentdomain.ErrEventIgnored
	}

	var session checkoutSessionObject
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return CompletedCheckout{}, paymentdomain.ErrInvalidPayload
	}
	if session.PaymentStatus != "" && session.PaymentStatus != "paid" {
		return CompletedCheckout{}, paymentdomain.ErrEventIgnored
	}

	userID := strings.TrimSpace(session.Metadata["user_id"])
	if userID == "" {
		userID = strings.TrimSpace(session.ClientReferenceID)
	}
	credits, err := strconv.ParseInt(strings.TrimSpace(session.Metadata["credits"]), 10, 64)
	if err != nil || credits <= 0 || userID == "" {
		return CompletedCheckout{}, paymentdomain.ErrInvalidEvent
	}

	return CompletedCheckout{
		EventID:   event.ID,
		EventType: event.Type,
		SessionID: session.ID,
		UserID:    userID,
		PackageID: strings.TrimSpace(session.Metadata["package_id"]),
		Credits:   credits,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, paymentdomain.ErrInvalidSignature
	}
	return timestamp, signatures, nil
}
