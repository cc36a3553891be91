package domain

import (
	"context"
	"errors"
)

var (
	ErrInvalidUser        = errors.New("invalid_user")
	ErrNoDrawing          = errors.New("no_drawing")
	ErrNoCredits          = errors.New("no_credits")
	ErrGenerationInFlight = errors.New("generation_in_flight")
	ErrStorageUnavailable = errors.New("storage_unavailable")
	ErrNotFound           = errors.New("not_found")
)

type StartRequest struct {
	UserID string
}

type GetRequest struct {
	UserID string
	ID     string
}

type Service interface {
	// Start runs the full pipeline for the user's captured drawing and
	// blocks until the attempt reaches a terminal state. Pre-flight
	// rejections (no drawing, no credits, already running) return an
	// error without recording an attempt; pipeline failures return the
	// failed attempt with a nil error.
	Start(context.Context, StartRequest) (Attempt, error)
	Get(context.Context, GetRequest) (Attempt, error)
}
