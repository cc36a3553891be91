package referral

import (
	"github.com/paddybishop/draw2real-magic-world/internal/referral/repository"
	"github.com/paddybishop/draw2real-magic-world/internal/referral/service"
	"go.uber.org/fx"
)

var Module = fx.Module("referral.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
