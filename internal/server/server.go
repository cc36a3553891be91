package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/paddybishop/draw2real-magic-world/internal/auth"
	"github.com/paddybishop/draw2real-magic-world/internal/config"
	creditsdomain "github.com/paddybishop/draw2real-magic-world/internal/credits/domain"
	drawingdomain "github.com/paddybishop/draw2real-magic-world/internal/drawing/domain"
	gallerydomain "github.com/paddybishop/draw2real-magic-world/internal/gallery/domain"
	generationdomain "github.com/paddybishop/draw2real-magic-world/internal/generation/domain"
	"github.com/paddybishop/draw2real-magic-world/internal/observability"
	obsmiddleware "github.com/paddybishop/draw2real-magic-world/internal/observability/logger"
	obsmetrics "github.com/paddybishop/draw2real-magic-world/internal/observability/metrics"
	obstracing "github.com/paddybishop/draw2real-magic-world/internal/observability/tracing"
	paymentdomain "github.com/paddybishop/draw2real-magic-world/internal/payment/domain"
	referraldomain "github.com/paddybishop/draw2real-magic-world/internal/referral/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	pricing       *config.PricingHolder
	verifier      *auth.Verifier
	creditsSvc    creditsdomain.Service
	drawings      drawingdomain.Store
	gallerySvc    gallerydomain.Service
	generationSvc generationdomain.Service
	paymentSvc    paymentdomain.Service
	referralSvc   referraldomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	Pricing       *config.PricingHolder
	Verifier      *auth.Verifier
	CreditsSvc    creditsdomain.Service
	Drawings      drawingdomain.Store
	GallerySvc    gallerydomain.Service
	GenerationSvc generationdomain.Service
	PaymentSvc    paymentdomain.Service
	ReferralSvc   referraldomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		pricing:       p.Pricing,
		verifier:      p.Verifier,
		creditsSvc:    p.CreditsSvc,
		drawings:      p.Drawings,
		gallerySvc:    p.GallerySvc,
		generationSvc: p.GenerationSvc,
		paymentSvc:    p.PaymentSvc,
		referralSvc:   p.ReferralSvc,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", s.AuthRequired())

	v1.PUT("/drawing", s.SaveDrawing)
	v1.GET("/drawing", s.GetDrawing)
	v1.DELETE("/drawing", s.ClearDrawing)

	v1.POST("/generations", s.StartGeneration)
	v1.GET("/generations/:id", s.GetGeneration)

	v1.GET("/gallery", s.ListGallery)
	v1.GET("/gallery/:id", s.GetGalleryImage)

	v1.GET("/credits", s.GetBalance)
	v1.GET("/credits/transactions", s.ListTransactions)
	v1.GET("/credits/transactions/:id/receipt", s.GetReceipt)
	v1.GET("/credits/packages", s.ListPackages)

	v1.POST("/checkout", s.CreateCheckout)

	v1.GET("/referral/code", s.GetReferralCode)
	v1.POST("/referral/redeem", s.RedeemReferralCode)
}

// Webhook endpoints authenticate via provider signatures, not bearer tokens.
func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/v1/webhooks/stripe", s.StripeWebhook)
}
