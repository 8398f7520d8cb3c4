package config_test

import (
	"testing"
	"time"

	"dialogrelay/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("SESSION_TTL_SECONDS", "")
	t.Setenv("SESSION_MAX", "")
	t.Setenv("SESSION_CLEANUP_INTERVAL_SECONDS", "")
	t.Setenv("SESSION_CLEANUP_ENABLED", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.Sessions.TTL != 30*time.Minute {
		t.Fatalf("unexpected ttl: %v", cfg.Sessions.TTL)
	}
	if cfg.Sessions.CleanupInterval != time.Minute {
		t.Fatalf("unexpected cleanup interval: %v", cfg.Sessions.CleanupInterval)
	}
	if !cfg.Sessions.CleanupEnabled {
		t.Fatal("cleanup should default on")
	}
	if cfg.Sessions.MaxSessions != 0 {
		t.Fatalf("session cap should default off, got %d", cfg.Sessions.MaxSessions)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL_SECONDS", "120")
	t.Setenv("SESSION_MAX", "50")
	t.Setenv("SESSION_CLEANUP_ENABLED", "false")
	t.Setenv("CLIENTS_MAX", "4")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
	if cfg.Sessions.TTL != 2*time.Minute {
		t.Fatalf("unexpected ttl: %v", cfg.Sessions.TTL)
	}
	if cfg.Sessions.MaxSessions != 50 {
		t.Fatalf("unexpected session cap: %d", cfg.Sessions.MaxSessions)
	}
	if cfg.Sessions.CleanupEnabled {
		t.Fatal("cleanup should be disabled")
	}
	if cfg.Registry.MaxClients != 4 {
		t.Fatalf("unexpected client cap: %d", cfg.Registry.MaxClients)
	}
}

func TestLoadHostPort(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:8081")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8081" {
		t.Fatalf("unexpected addr: %q", cfg.Server.Addr)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("SESSION_TTL_SECONDS", "not-a-number")
	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TTL")
	}
}

func TestEngineEnabled(t *testing.T) {
	cfg := config.EngineConfig{}
	if cfg.Enabled() {
		t.Fatal("engine without credentials must be disabled")
	}
	cfg.APIKey = "key"
	cfg.ProjectID = "proj"
	if !cfg.Enabled() {
		t.Fatal("engine with key and project must be enabled")
	}
}

func TestTelegramEnabled(t *testing.T) {
	cfg := config.TelegramConfig{ClientID: "bot-1"}
	if cfg.Enabled() {
		t.Fatal("telegram without bot token must be disabled")
	}
	cfg.BotToken = "token"
	if !cfg.Enabled() {
		t.Fatal("telegram with id and token must be enabled")
	}
}

func TestWhatsAppEnabled(t *testing.T) {
	cfg := config.WhatsAppConfig{ClientID: "bot-2", AccessToken: "token"}
	if cfg.Enabled() {
		t.Fatal("whatsapp without phone number id must be disabled")
	}
	cfg.PhoneNumberID = "12345"
	if !cfg.Enabled() {
		t.Fatal("whatsapp with full credentials must be enabled")
	}
}
