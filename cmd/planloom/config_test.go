package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PLANLOOM_ENGINE_URL", "http://engine:5678")
	t.Setenv("PLANLOOM_API_KEY", "k")
	t.Setenv("PLANLOOM_LOG_LEVEL", "debug")
	t.Setenv("PLANLOOM_HTTP_TIMEOUT", "5s")

	cfg := loadConfig()
	assert.Equal(t, "http://engine:5678", cfg.EngineURL)
	assert.Equal(t, "k", cfg.APIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.httpTimeout())
}

func TestConfigDefaults(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, "http://localhost:5678", cfg.EngineURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.httpTimeout())
}

func TestHTTPTimeoutFallback(t *testing.T) {
	cfg := Config{HTTPTimeout: "not-a-duration"}
	assert.Equal(t, 30*time.Second, cfg.httpTimeout())

	cfg = Config{HTTPTimeout: "-1s"}
	assert.Equal(t, 30*time.Second, cfg.httpTimeout())
}
