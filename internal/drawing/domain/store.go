package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNoDrawing      = errors.New("no_drawing")
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidPayload = errors.New("invalid_payload")
)

// Drawing is the in-flight captured image for one user. A user holds at
// most one drawing at a time; saving a new one replaces the previous.
type Drawing struct {
	UserID      string    `json:"user_id"`
	Data        []byte    `json:"data"`
	ContentType string    `json:"content_type"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Store holds the single mutable drawing slot per user. Entries expire
// after the configured TTL so abandoned sessions do not pile up.
type Store interface {
	Save(ctx context.Context, drawing Drawing) error
	// Load returns ErrNoDrawing when the slot is empty or expired.
	Load(ctx context.Context, userID string) (Drawing, error)
	Clear(ctx context.Context, userID string) error
}
