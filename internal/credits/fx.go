package credits

import (
	"github.com/paddybishop/draw2real-magic-world/internal/credits/repository"
	"github.com/paddybishop/draw2real-magic-world/internal/credits/service"
	"go.uber.org/fx"
)

var Module = fx.Module("credits.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
