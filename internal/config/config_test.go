package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "3000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBPath != "kakaku.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
	if cfg.AppEnv != "development" || cfg.IsProduction() {
		t.Errorf("AppEnv = %q", cfg.AppEnv)
	}
	if cfg.Storage.Region != "ap-northeast-1" {
		t.Errorf("Storage.Region = %q", cfg.Storage.Region)
	}
	if cfg.Storage.URLTTL != 15*time.Minute {
		t.Errorf("Storage.URLTTL = %v", cfg.Storage.URLTTL)
	}
	if cfg.AIConfigured() {
		t.Error("AIConfigured() = true with no key set")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("API_BASE_PATH", "api/v2/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example , https://b.example,")
	t.Setenv("GEMINI_API_KEY", "real-key")
	t.Setenv("S3_BUCKET", "receipts")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8081" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false")
	}
	if cfg.APIBasePath != "/api/v2" {
		t.Errorf("APIBasePath = %q", cfg.APIBasePath)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[0] != "https://a.example" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.AIConfigured() {
		t.Error("AIConfigured() = false with real key")
	}
	if cfg.Storage.Bucket != "receipts" {
		t.Errorf("Storage.Bucket = %q", cfg.Storage.Bucket)
	}
}

func TestAIConfigured_PlaceholderKeys(t *testing.T) {
	for _, key := range []string{"", "AI Studio Free Tier", "paste YOUR_API_KEY here"} {
		c := Config{AI: AIConfig{GeminiAPIKey: key}}
		if c.AIConfigured() {
			t.Errorf("AIConfigured() = true for placeholder %q", key)
		}
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Fatalf("err = %v, want LOG_LEVEL error", err)
	}
}

func TestLoad_InvalidRateBurst(t *testing.T) {
	t.Setenv("RATE_BURST", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for RATE_BURST=0")
	}
}

func TestLoad_NormalizesWarning(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warning")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}
