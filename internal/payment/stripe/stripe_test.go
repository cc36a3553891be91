package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
)

const webhookSecret = "whsec_test"

func signPayload(payload []byte, secret string, at time.Time) string {
	timestamp := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp + "." + string(payload)))
	return fmt.Sprintf("t=%s,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func completedEvent(eventID, userID string, credits int64) []byte {
	payload, _ := json.Marshal(map[string]any{
		"id":   eventID,
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_123",
				"payment_status": "paid",
				"metadata": map[string]string{
					"user_id":    userID,
					"package_id": "price_5",
					"credits":    fmt.Sprintf("%d", credits),
				},
			},
		},
	})
	return payload
}

func newClient(baseURL string) *Client {
	return NewClient(config.StripeConfig{
		BaseURL:       baseURL,
		SecretKey:     "sk_test",
		WebhookSecret: webhookSecret,
		SuccessURL:    "http://localhost:3000/payment-success",
		CancelURL:     "http://localhost:3000/premium",
		Currency:      "gbp",
	})
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	c := newClient("")
	payload := completedEvent("evt_1", "user-1", 50)

	headers := http.Header{}
	headers.Set("Stripe-Signature", signPayload(payload, webhookSecret, time.Now()))
	assert.NoError(t, c.Verify(payload, headers))
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	c := newClient("")
	payload := completedEvent("evt_1", "user-1", 50)

	headers := http.Header{}
	headers.Set("Stripe-Signature", signPayload(payload, "whsec_other", time.Now()))
	assert.ErrorIs(t, c.Verify(payload, headers), paymentdomain.ErrInvalidSignature)

	headers.Set("Stripe-Signature", "garbage")
	assert.ErrorIs(t, c.Verify(payload, headers), paymentdomain.ErrInvalidSignature)

	assert.ErrorIs(t, c.Verify(payload, http.Header{}), paymentdomain.ErrInvalidSignature)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	c := newClient("")
	payload := completedEvent("evt_1", "user-1", 50)

	headers := http.Header{}
	headers.Set("Stripe-Signature", signPayload(payload, webhookSecret, time.Now()))

	tampered := completedEvent("evt_1", "user-1", 5000)
	assert.ErrorIs(t, c.Verify(tampered, headers), paymentdomain.ErrInvalidSignature)
}

func TestParseCompletedCheckout(t *testing.T) {
	c := newClient("")

	checkout, err := c.Parse(completedEvent("evt_1", "user-1", 50))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", checkout.EventID)
	assert.Equal(t, "user-1", checkout.UserID)
	assert.Equal(t, "price_5", checkout.PackageID)
	assert.Equal(t, int64(50), checkout.Credits)
	assert.Equal(t, "cs_123", checkout.SessionID)
}

func TestParseIgnoresOtherEvents(t *testing.T) {
	c := newClient("")

	payload, _ := json.Marshal(map[string]any{
		"id":   "evt_2",
		"type": "payment_intent.succeeded",
		"data": map[string]any{"object": map[string]any{}},
	})
	_, err := c.Parse(payload)
	assert.ErrorIs(t, err, paymentdomain.ErrEventIgnored)
}

func TestParseIgnoresUnpaidSessions(t *testing.T) {
	c := newClient("")

	payload, _ := json.Marshal(map[string]any{
		"id":   "evt_3",
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{
				"id":             "cs_9",
				"payment_status": "unpaid",
				"metadata":       map[string]string{"user_id": "user-1", "credits": "50"},
			},
		},
	})
	_, err := c.Parse(payload)
	assert.ErrorIs(t, err, paymentdomain.ErrEventIgnored)
}

func TestParseRejectsMissingMetadata(t *testing.T) {
	c := newClient("")

	payload, _ := json.Marshal(map[string]any{
		"id":   "evt_4",
		"type": "checkout.session.completed",
		"data": map[string]any{
			"object": map[string]any{"id": "cs_9", "payment_status": "paid"},
		},
	})
	_, err := c.Parse(payload)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidEvent)

	_, err = c.Parse([]byte("{not json"))
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidPayload)
}

func TestCreateCheckoutSession(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		form = r.PostForm

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":  "cs_456",
			"url": "https://checkout.stripe.com/pay/cs_456",
		})
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	session, err := c.CreateCheckoutSession(context.Background(), "user-1", config.CreditPackage{
		ID: "price_5", Name: "Family Pack", Credits: 50, AmountMinor: 500,
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_456", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_456", session.URL)

	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "user-1", form.Get("client_reference_id"))
	assert.Equal(t, "gbp", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "500", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "Family Pack", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "user-1", form.Get("metadata[user_id]"))
	assert.Equal(t, "50", form.Get("metadata[credits]"))
	assert.Equal(t, "http://localhost:3000/payment-success?credits=50", form.Get("success_url"))
}

func TestCreateCheckoutSessionSurfacesStripeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "card declined"},
		})
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).CreateCheckoutSession(context.Background(), "user-1", config.CreditPackage{
		ID: "price_1", Name: "Mini", Credits: 10, AmountMinor: 100,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}

func TestCreateCheckoutSessionWithoutKey(t *testing.T) {
	c := NewClient(config.StripeConfig{})
	_, err := c.CreateCheckoutSession(context.Background(), "user-1", config.CreditPackage{ID: "price_1"})
	assert.ErrorIs(t, err, paymentdomain.ErrNotConfigured)
}
