package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config holds all planloom server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	EngineURL   string `json:"engine_url"`
	APIKey      string `json:"api_key"`
	LogLevel    string `json:"log_level"`
	HTTPTimeout string `json:"http_timeout"`
}

func defaultConfig() Config {
	return Config{
		EngineURL:   "http://localhost:5678",
		LogLevel:    "info",
		HTTPTimeout: "30s",
	}
}

func planloomDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".planloom"
	}
	return filepath.Join(home, ".planloom")
}

func settingsPath() string {
	return filepath.Join(planloomDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("PLANLOOM_ENGINE_URL"); v != "" {
		cfg.EngineURL = v
	}
	if v := os.Getenv("PLANLOOM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("PLANLOOM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PLANLOOM_HTTP_TIMEOUT"); v != "" {
		cfg.HTTPTimeout = v
	}

	return cfg
}

// httpTimeout parses the configured timeout, falling back to 30s.
func (c Config) httpTimeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
