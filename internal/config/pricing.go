package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// CreditPackage is a purchasable bundle of generation credits.
type CreditPackage struct {
	ID          string `mapstructure:"id" json:"id"`
	Name        string `mapstructure:"name" json:"name"`
	Credits     int64  `mapstructure:"credits" json:"credits"`
	AmountMinor int64  `mapstructure:"amount_minor" json:"amount_minor"`
}

// PricingConfig holds the set of purchasable credit packages.
type PricingConfig struct {
	Packages []CreditPackage `mapstructure:"packages"`
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		Packages: []CreditPackage{
			{ID: "price_1", Name: "10 Credits", Credits: 10, AmountMinor: 100},
			{ID: "price_5", Name: "50 Credits", Credits: 50, AmountMinor: 500},
			{ID: "price_10", Name: "100 Credits", Credits: 100, AmountMinor: 1000},
			{ID: "price_20", Name: "200 Credits", Credits: 200, AmountMinor: 2000},
		},
	}
}

// PricingHolder exposes the current pricing config and hot-reloads it on change.
type PricingHolder struct {
	current atomic.Value // holds PricingConfig
}

func NewPricingHolder() (*PricingHolder, error) {
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/draw2real/config")
	v.AddConfigPath("/etc/draw2real")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DRAW2REAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultPricingConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	} else {
		if err := v.UnmarshalKey("pricing", &cfg); err != nil {
			return nil, err
		}
	}
	if err := validatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &PricingHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated PricingConfig
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Printf("[pricing-config] reload failed: %v", err)
			return
		}
		if err := validatePricingConfig(updated); err != nil {
			log.Printf("[pricing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
	})

	return holder, nil
}

// Current returns the active pricing configuration.
func (h *PricingHolder) Current() PricingConfig {
	if h == nil {
		return DefaultPricingConfig()
	}
	cfg, ok := h.current.Load().(PricingConfig)
	if !ok {
		return DefaultPricingConfig()
	}
	return cfg
}

// Package looks up a credit package by ID.
func (h *PricingHolder) Package(id string) (CreditPackage, bool) {
	id = strings.TrimSpace(id)
	for _, pkg := range h.Current().Packages {
		if pkg.ID == id {
			return pkg, true
		}
	}
	return CreditPackage{}, false
}

func validatePricingConfig(cfg PricingConfig) error {
	if len(cfg.Packages) == 0 {
		return errors.New("pricing requires at least one package")
	}
	seen := make(map[string]struct{}, len(cfg.Packages))
	for _, pkg := range cfg.Packages {
		if strings.TrimSpace(pkg.ID) == "" {
			return errors.New("package id is required")
		}
		if _, dup := seen[pkg.ID]; dup {
			return errors.New("duplicate package id: " + pkg.ID)
		}
		seen[pkg.ID] = struct{}{}
		if pkg.Credits <= 0 {
			return errors.New("package credits must be positive: " + pkg.ID)
		}
		if pkg.AmountMinor <= 0 {
			return errors.New("package amount must be positive: " + pkg.ID)
		}
	}
	return nil
}
