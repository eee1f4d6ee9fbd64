package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected development environment, got %s", cfg.Environment)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info log level, got %v", cfg.LogLevel)
	}
	if cfg.MaxIterations != 3 {
		t.Errorf("Expected 3 max iterations, got %d", cfg.MaxIterations)
	}
	if cfg.MaxToolsPerResponse != 3 {
		t.Errorf("Expected 3 max tools, got %d", cfg.MaxToolsPerResponse)
	}
	if cfg.SessionTimeout != 120*time.Second {
		t.Errorf("Expected 120s session timeout, got %v", cfg.SessionTimeout)
	}
	if cfg.DispatchTimeout != 5*time.Second {
		t.Errorf("Expected 5s dispatch timeout, got %v", cfg.DispatchTimeout)
	}
	if cfg.MaxDistance != 10 {
		t.Errorf("Expected max distance 10, got %v", cfg.MaxDistance)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MAX_ITERATIONS", "5")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("SESSION_TIMEOUT_SECONDS", "30")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("Expected debug log level, got %v", cfg.LogLevel)
	}
	if cfg.MaxIterations != 5 {
		t.Errorf("Expected 5 max iterations, got %d", cfg.MaxIterations)
	}
	if cfg.Temperature != 0.2 {
		t.Errorf("Expected temperature 0.2, got %v", cfg.Temperature)
	}
	if cfg.SessionTimeout != 30*time.Second {
		t.Errorf("Expected 30s session timeout, got %v", cfg.SessionTimeout)
	}
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("MAX_ITERATIONS", "lots")
	t.Setenv("LLM_TEMPERATURE", "warm")

	cfg := Load()
	if cfg.MaxIterations != 3 {
		t.Errorf("Expected default on malformed int, got %d", cfg.MaxIterations)
	}
	if cfg.Temperature != 0.7 {
		t.Errorf("Expected default on malformed float, got %v", cfg.Temperature)
	}
}

func TestProviderConfigured(t *testing.T) {
	cases := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"  ", false},
		{"changeme", false},
		{"your-api-key", false},
		{"sk-real-key", true},
	}
	for _, tc := range cases {
		cfg := &Config{APIKey: tc.key}
		if got := cfg.ProviderConfigured(); got != tc.want {
			t.Errorf("ProviderConfigured(%q) = %v, want %v", tc.key, got, tc.want)
		}
	}
}
