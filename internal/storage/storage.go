package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
)

var (
	ErrNotConfigured = errors.New("storage_not_configured")
	ErrUploadFailed  = errors.New("upload_failed")
)

// Store persists image bytes and returns a publicly reachable URL.
type Store interface {
	// EnsureBucket creates the configured bucket if it does not exist.
	EnsureBucket(ctx context.Context) error
	// Put writes data under key and returns its public URL. Writes are
	// idempotent: re-putting the same key overwrites the same object.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ObjectKey builds a stable object key for an attempt artifact.
// kind is "originals" or "generated"; label is free text (for example
// the first words of the description) and is slugified.
func ObjectKey(kind, userID string, attemptID int64, label string, now time.Time) string {
	name := slug.Make(truncateLabel(label))
	if name == "" {
		name = "drawing"
	}
	return fmt.Sprintf("%s/%s/%s/%d-%s.png", kind, userID, now.UTC().Format("2006/01/02"), attemptID, name)
}

func truncateLabel(label string) string {
	words := strings.Fields(label)
	if len(words) > 6 {
		words = words[:6]
	}
	return strings.Join(words, " ")
}
