package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "INR", cfg.Currency)
	assert.Equal(t, 15*time.Minute, cfg.PaymentTimeout)
	assert.Equal(t, 24*time.Hour, cfg.CartIdleTTL)
	assert.Equal(t, "s3cret", cfg.ReceiptSecret)
	assert.Empty(t, cfg.GatewayURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", ":9000")
	t.Setenv("CURRENCY", " usd ")
	t.Setenv("PAYMENT_TIMEOUT", "90s")
	t.Setenv("PAYMENT_GATEWAY_URL", "https://api.gateway.test")
	t.Setenv("PAYMENT_GATEWAY_KEY", "pk_test:sk_test")
	t.Setenv("RECEIPT_SECRET", "other")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 90*time.Second, cfg.PaymentTimeout)
	assert.Equal(t, "other", cfg.ReceiptSecret)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("gateway without key", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("PAYMENT_GATEWAY_URL", "https://api.gateway.test")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad duration", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("PAYMENT_TIMEOUT", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug"}
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
