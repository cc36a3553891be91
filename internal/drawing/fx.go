package drawing

import (
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
	"github.com/paddybishop/draw2real-magic-world/internal/drawing/domain"
	"github.com/paddybishop/draw2real-magic-world/internal/drawing/store"
)

// Module provides the drawing capture store. Redis keeps the slot
// shared across instances; without redis the slot is process-local.
var Module = fx.Module("drawing.store",
	fx.Provide(provideStore),
)

func provideStore(cfg config.Config, client *redis.Client, log *zap.Logger) domain.Store {
	ttl := time.Duration(cfg.DrawingTTLSeconds) * time.Second
	if client != nil {
		return store.NewRedisStore(client, ttl, log)
	}
	log.Warn("redis unavailable, drawing capture state is process local")
	return store.NewMemoryStore(ttl)
}
