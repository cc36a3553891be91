package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/paddybishop/draw2real-magic-world/internal/drawing/domain"
)

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisStore holds drawings in redis so any instance can serve the
// generation request that follows the capture.
func NewRedisStore(client *redis.Client, ttl time.Duration, log *zap.Logger) domain.Store {
	return &redisStore{
		client: client,
		ttl:    ttl,
		log:    log.Named("drawing.store.redis"),
	}
}

func drawingKey(userID string) string {
	return "drawing:" + userID
}

func (s *redisStore) Save(ctx context.Context, drawing domain.Drawing) error {
	if strings.TrimSpace(drawing.UserID) == "" {
		return domain.ErrInvalidUser
	}
	if len(drawing.Data) == 0 {
		return domain.ErrInvalidPayload
	}

	payload, err := json.Marshal(drawing)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, drawingKey(drawing.UserID), payload, s.ttl).Err()
}

func (s *redisStore) Load(ctx context.Context, userID string) (domain.Drawing, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Drawing{}, domain.ErrInvalidUser
	}

	payload, err := s.client.Get(ctx, drawingKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Drawing{}, domain.ErrNoDrawing
		}
		return domain.Drawing{}, err
	}

	var drawing domain.Drawing
	if err := json.Unmarshal(payload, &drawing); err != nil {
		s.log.Warn("corrupt drawing payload dropped", zap.String("user_id", userID), zap.Error(err))
		_ = s.client.Del(ctx, drawingKey(userID)).Err()
		return domain.Drawing{}, domain.ErrNoDrawing
	}
	return drawing, nil
}

func (s *redisStore) Clear(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrInvalidUser
	}
	return s.client.Del(ctx, drawingKey(userID)).Err()
}
