package payment

import (
	"go.uber.org/fx"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
	"github.com/paddybishop/draw2real-magic-world/internal/payment/repository"
	"github.com/paddybishop/draw2real-magic-world/internal/payment/service"
	"github.com/paddybishop/draw2real-magic-world/internal/payment/stripe"
)

var Module = fx.Module("payment.service",
	fx.Provide(func(cfg config.Config) *stripe.Client {
		return stripe.NewClient(cfg.Stripe)
	}),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
