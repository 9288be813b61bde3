package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestNewConfigDefaults verifies the built-in defaults.
func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ":3000", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, int64(10_000_000), cfg.MaxMessageSize)
	assert.Equal(t, 200, cfg.HistoryCapacity)
	assert.Equal(t, 50, cfg.HistoryReplay)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

// TestNewConfigFromEnv verifies environment overrides and fallbacks.
func TestNewConfigFromEnv(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("ENV", "production")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
		t.Setenv("MAX_MESSAGE_SIZE", "4096")
		t.Setenv("RATE_LIMIT_BURST", "7")
		t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "3")
		t.Setenv("HISTORY_CAPACITY", "10")
		t.Setenv("HISTORY_REPLAY", "4")
		t.Setenv("STATIC_DIR", "./public")
		t.Setenv("SHUTDOWN_TIMEOUT", "500ms")

		cfg := NewConfigFromEnv()

		assert.Equal(t, ":8080", cfg.Port)
		assert.False(t, cfg.IsDevelopment())
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
		assert.Equal(t, int64(4096), cfg.MaxMessageSize)
		assert.Equal(t, RateLimitConfig{Burst: 7, RefillInterval: 3 * time.Second}, cfg.RateLimit)
		assert.Equal(t, 10, cfg.HistoryCapacity)
		assert.Equal(t, 4, cfg.HistoryReplay)
		assert.Equal(t, "./public", cfg.StaticDir)
		assert.Equal(t, 500*time.Millisecond, cfg.ShutdownTimeout)
	})

	t.Run("server port wins over port", func(t *testing.T) {
		t.Setenv("PORT", "8080")
		t.Setenv("SERVER_PORT", "127.0.0.1:9000")

		assert.Equal(t, "127.0.0.1:9000", NewConfigFromEnv().Port)
	})

	t.Run("invalid values fall back to defaults", func(t *testing.T) {
		t.Setenv("MAX_MESSAGE_SIZE", "-1")
		t.Setenv("RATE_LIMIT_BURST", "lots")
		t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "0")
		t.Setenv("HISTORY_CAPACITY", "0")

		cfg := NewConfigFromEnv()
		def := defaultConfig()

		assert.Equal(t, def.MaxMessageSize, cfg.MaxMessageSize)
		assert.Equal(t, def.RateLimit, cfg.RateLimit)
		assert.Equal(t, def.HistoryCapacity, cfg.HistoryCapacity)
	})
}

// TestSanitized verifies that zero values are replaced by defaults.
func TestSanitized(t *testing.T) {
	cfg := Config{AllowedOrigins: []string{"http://x.example"}}.Sanitized()
	def := defaultConfig()

	assert.Equal(t, def.Port, cfg.Port)
	assert.Equal(t, def.MaxMessageSize, cfg.MaxMessageSize)
	assert.Equal(t, def.RateLimit, cfg.RateLimit)
	assert.Equal(t, def.HistoryCapacity, cfg.HistoryCapacity)
	assert.Equal(t, def.HistoryReplay, cfg.HistoryReplay)
	assert.Equal(t, def.ShutdownTimeout, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"http://x.example"}, cfg.AllowedOrigins)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"5", 5 * time.Second},
		{"250ms", 250 * time.Millisecond},
		{"2m", 2 * time.Minute},
		{"0", time.Hour},
		{"-3s", time.Hour},
		{"soon", time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDuration(tt.in, time.Hour))
		})
	}
}

// TestNewRateLimiter verifies burst size and refill rate.
func TestNewRateLimiter(t *testing.T) {
	limiter := newRateLimiter(RateLimitConfig{Burst: 3, RefillInterval: time.Minute})

	assert.Equal(t, 3, limiter.Burst())
	assert.InDelta(t, 3.0/60.0, float64(limiter.Limit()), 1e-9)
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "token %d", i)
	}
	assert.False(t, limiter.Allow())
}
