package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr         string
	AuthCookieSecure bool
	AuthJWTSecret    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Storage StorageConfig
	OpenAI  OpenAIConfig
	Stripe  StripeConfig

	ReferralBonusCredits int64
	DrawingTTLSeconds    int
	GenerationCost       int64
}

// StorageConfig configures the S3-compatible object store.
type StorageConfig struct {
	Endpoint   string
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	PublicBase string
}

// OpenAIConfig configures the vision and image synthesis provider.
type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	VisionModel string
	ImageModel  string
	ImageSize   string
}

// StripeConfig configures the payments provider.
type StripeConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Currency      string
}

// Module provides the application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewPricingHolder),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "draw2real"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		AuthJWTSecret:    strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "draw2real"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
		RedisDB:       getenvInt("REDIS_DB", 0),

		Storage: StorageConfig{
			Endpoint:   strings.TrimSpace(getenv("STORAGE_ENDPOINT", "")),
			Region:     getenv("STORAGE_REGION", "us-east-1"),
			Bucket:     getenv("STORAGE_BUCKET", "draw2real-images"),
			AccessKey:  strings.TrimSpace(getenv("STORAGE_ACCESS_KEY", "")),
			SecretKey:  strings.TrimSpace(getenv("STORAGE_SECRET_KEY", "")),
			PublicBase: strings.TrimRight(getenv("STORAGE_PUBLIC_BASE", ""), "/"),
		},
		OpenAI: OpenAIConfig{
			BaseURL:     strings.TrimRight(getenv("OPENAI_BASE_URL", "https://api.openai.com"), "/"),
			APIKey:      strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
			VisionModel: getenv("OPENAI_VISION_MODEL", "gpt-4o"),
			ImageModel:  getenv("OPENAI_IMAGE_MODEL", "dall-e-3"),
			ImageSize:   getenv("OPENAI_IMAGE_SIZE", "1024x1024"),
		},
		Stripe: StripeConfig{
			BaseURL:       strings.TrimRight(getenv("STRIPE_BASE_URL", "https://api.stripe.com"), "/"),
			SecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			SuccessURL:    getenv("STRIPE_SUCCESS_URL", "http://localhost:3000/payment-success"),
			CancelURL:     getenv("STRIPE_CANCEL_URL", "http://localhost:3000/premium"),
			Currency:      strings.ToLower(getenv("STRIPE_CURRENCY", "gbp")),
		},

		ReferralBonusCredits: int64(getenvInt("REFERRAL_BONUS_CREDITS", 3)),
		DrawingTTLSeconds:    getenvInt("DRAWING_TTL_SECONDS", 3600),
		GenerationCost:       int64(getenvInt("GENERATION_COST_CREDITS", 1)),
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
