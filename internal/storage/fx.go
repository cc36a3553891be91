package storage

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
)

// Module wires the object store and the image fetcher. When storage is
// not configured the Store is nil and generation fails fast with a clear
// error instead of at upload time.
var Module = fx.Module("storage",
	fx.Provide(provideStore),
	fx.Provide(NewFetcher),
)

func provideStore(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Store, error) {
	store, err := NewS3Store(context.Background(), cfg.Storage, log)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			log.Warn("object storage not configured, image generation disabled")
			return nil, nil
		}
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return store.EnsureBucket(ctx)
		},
	})

	return store, nil
}
