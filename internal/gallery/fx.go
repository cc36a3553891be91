package gallery

import (
	"github.com/paddybishop/draw2real-magic-world/internal/gallery/repository"
	"github.com/paddybishop/draw2real-magic-world/internal/gallery/service"
	"go.uber.org/fx"
)

var Module = fx.Module("gallery.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
