package store

import (
	"context"
	"strings"
	"time"

	"github.com/paddybishop/draw2real-magic-world/internal/cache"
	"github.com/paddybishop/draw2real-magic-world/internal/drawing/domain"
)

type memoryStore struct {
	entries cache.Cache[string, domain.Drawing]
	ttl     time.Duration
}

// NewMemoryStore keeps drawings in process memory. Suitable for
// single-instance deployments and tests.
func NewMemoryStore(ttl time.Duration) domain.Store {
	return &memoryStore{
		entries: cache.NewTTLCache[string, domain.Drawing](),
		ttl:     ttl,
	}
}

func (s *memoryStore) Save(_ context.Context, drawing domain.Drawing) error {
	if strings.TrimSpace(drawing.UserID) == "" {
		return domain.ErrInvalidUser
	}
	if len(drawing.Data) == 0 {
		return domain.ErrInvalidPayload
	}
	s.entries.Set(drawing.UserID, drawing, s.ttl)
	return nil
}

func (s *memoryStore) Load(_ context.Context, userID string) (domain.Drawing, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Drawing{}, domain.ErrInvalidUser
	}
	drawing, ok := s.entries.Get(userID)
	if !ok {
		return domain.Drawing{}, domain.ErrNoDrawing
	}
	return drawing, nil
}

func (s *memoryStore) Clear(_ context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrInvalidUser
	}
	s.entries.Delete(userID)
	return nil
}
