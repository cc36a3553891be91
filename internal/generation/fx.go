package generation

import (
	"go.uber.org/fx"

	"github.com/paddybishop/draw2real-magic-world/internal/generation/domain"
	"github.com/paddybishop/draw2real-magic-world/internal/generation/repository"
	"github.com/paddybishop/draw2real-magic-world/internal/generation/service"
	"github.com/paddybishop/draw2real-magic-world/internal/providers/openai"
	"github.com/paddybishop/draw2real-magic-world/internal/storage"
)

var Module = fx.Module("generation.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(c *openai.Client) domain.Describer { return c }),
	fx.Provide(func(c *openai.Client) domain.Synthesizer { return c }),
	fx.Provide(func(f *storage.Fetcher) domain.Fetcher { return f }),
	fx.Provide(service.New),
)
