package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DB_NAME" default:"shopfront"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	SecureCookies bool   `envconfig:"SECURE_COOKIES" default:"false"`

	Currency       string        `envconfig:"CURRENCY" default:"INR"`
	GatewayURL     string        `envconfig:"PAYMENT_GATEWAY_URL" default:""` // empty runs the local gateway
	GatewayKey     string        `envconfig:"PAYMENT_GATEWAY_KEY" default:""`
	PaymentTimeout time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"15m"`
	CartIdleTTL    time.Duration `envconfig:"CART_IDLE_TTL" default:"24h"`

	RateLimit float64 `envconfig:"RATE_LIMIT" default:"5"`
	RateBurst int     `envconfig:"RATE_BURST" default:"10"`

	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	ReceiptSecret   string `envconfig:"RECEIPT_SECRET" default:""` // falls back to JWT_SECRET
	ReceiptImageDir string `envconfig:"RECEIPT_IMAGE_DIR" default:"static/productpic"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}
	cfg.Currency = strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if cfg.ReceiptSecret == "" {
		cfg.ReceiptSecret = cfg.JWTSecret
	}
	if cfg.GatewayURL != "" && cfg.GatewayKey == "" {
		return nil, fmt.Errorf("PAYMENT_GATEWAY_KEY is required when PAYMENT_GATEWAY_URL is set")
	}
	return &cfg, nil
}

// NewLogger builds the production zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
