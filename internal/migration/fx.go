package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/paddybishop/draw2real-magic-world/internal/config"
	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	gallerydomain "github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	generationdomain "github.com/paddybishop/draw2real-magic-world/internal/generation/domain"
	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
	referraldomain "github.com/paddybishop/draw2real-magic-world/internal/referral/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// SQL migrations are postgres-only; a sqlite-configured server
		// builds its schema through AutoMigrate instead.
		if cfg.DBType != "postgres" {
			return AutoMigrate(conn)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

// AutoMigrate creates every persisted table on dialects the embedded
// SQL migrations do not cover.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&creditsdomain.UserCredit{},
		&creditsdomain.CreditTransaction{},
		&gallerydomain.GalleryImage{},
		&generationdomain.Attempt{},
		&referraldomain.ReferralCode{},
		&referraldomain.ReferralRedemption{},
		&paymentdomain.PaymentEvent{},
	)
}
