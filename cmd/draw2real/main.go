package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/paddybishop/draw2real-magic-world/internal/auth"
	"github.com/paddybishop/draw2real-magic-world/internal/clock"
	"github.com/paddybishop/draw2real-magic-world/internal/config"
	"github.com/paddybishop/draw2real-magic-world/internal/credits"
	"github.com/paddybishop/draw2real-magic-world/internal/drawing"
	"github.com/paddybishop/draw2real-magic-world/internal/gallery"
	"github.com/paddybishop/draw2real-magic-world/internal/generation"
	"github.com/paddybishop/draw2real-magic-world/internal/locks"
	"github.com/paddybishop/draw2real-magic-world/internal/migration"
	"github.com/paddybishop/draw2real-magic-world/internal/observability"
	"github.com/paddybishop/draw2real-magic-world/internal/payment"
	"github.com/paddybishop/draw2real-magic-world/internal/providers/openai"
	"github.com/paddybishop/draw2real-magic-world/internal/providers/pdf"
	"github.com/paddybishop/draw2real-magic-world/internal/referral"
	"github.com/paddybishop/draw2real-magic-world/internal/server"
	"github.com/paddybishop/draw2real-magic-world/internal/storage"
	"github.com/paddybishop/draw2real-magic-world/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		locks.Module,
		storage.Module,
		auth.Module,

		// External providers
		openai.Module,
		pdf.Module,

		// Functional domains
		credits.Module,
		drawing.Module,
		gallery.Module,
		generation.Module,
		referral.Module,
		payment.Module,

		server.Module,
	)
	app.Run()
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
