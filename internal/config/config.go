package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the relay consumes.
type Config struct {
	Server   ServerConfig
	Sessions SessionConfig
	Engine   EngineConfig
	AI       AIConfig
	Registry RegistryConfig
	Telegram TelegramConfig
	WhatsApp WhatsAppConfig
}

// Load reads the whole configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	sessions, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	engine, err := loadEngineConfig()
	if err != nil {
		return nil, err
	}

	registry, err := loadRegistryConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Sessions: sessions,
		Engine:   engine,
		AI:       loadAIConfig(),
		Registry: registry,
		Telegram: loadTelegramConfig(),
		WhatsApp: loadWhatsAppConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// SessionConfig is the per-client session lifecycle policy.
type SessionConfig struct {
	TTL             time.Duration
	MaxSessions     int
	CleanupInterval time.Duration
	CleanupEnabled  bool
}

func loadSessionConfig() (SessionConfig, error) {
	ttl, err := parseSecondsEnv("SESSION_TTL_SECONDS", 30*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	interval, err := parseSecondsEnv("SESSION_CLEANUP_INTERVAL_SECONDS", time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	enabled, err := parseBoolEnv("SESSION_CLEANUP_ENABLED", true)
	if err != nil {
		return SessionConfig{}, err
	}

	maxSessions := 0
	if override, err := parseOptionalIntEnv("SESSION_MAX"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		maxSessions = *override
	}

	return SessionConfig{
		TTL:             ttl,
		MaxSessions:     maxSessions,
		CleanupInterval: interval,
		CleanupEnabled:  enabled,
	}, nil
}

// EngineConfig points at the remote dialog-engine runtime.
type EngineConfig struct {
	BaseURL   string
	APIKey    string
	ProjectID string
	VersionID string
	Timeout   time.Duration
}

// Enabled reports whether remote runtime credentials were provided.
func (c EngineConfig) Enabled() bool {
	return c.APIKey != "" && c.ProjectID != ""
}

func loadEngineConfig() (EngineConfig, error) {
	timeout, err := parseSecondsEnv("ENGINE_TIMEOUT_SECONDS", 30*time.Second)
	if err != nil {
		return EngineConfig{}, err
	}

	return EngineConfig{
		BaseURL:   getEnvOrDefault("ENGINE_BASE_URL", "https://general-runtime.dialogengine.example"),
		APIKey:    strings.TrimSpace(os.Getenv("ENGINE_API_KEY")),
		ProjectID: strings.TrimSpace(os.Getenv("ENGINE_PROJECT_ID")),
		VersionID: getEnvOrDefault("ENGINE_VERSION_ID", "production"),
		Timeout:   timeout,
	}, nil
}

// AIConfig configures the embedded model engine used when no remote runtime
// is available.
type AIConfig struct {
	APIKey       string
	AccessKey    string
	SecretKey    string
	Model        string
	BaseURL      string
	Region       string
	SystemPrompt string
}

// Enabled reports whether the required model credentials were provided.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: provide ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	return ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:   c.BaseURL,
		Region:    c.Region,
		APIKey:    c.APIKey,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Model:     c.Model,
	})
}

func loadAIConfig() AIConfig {
	return AIConfig{
		APIKey:       strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:    strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:    strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:        strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:      getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:       getEnvOrDefault("ARK_REGION", "cn-beijing"),
		SystemPrompt: getEnvOrDefault("AI_SYSTEM_PROMPT", "You are a helpful assistant answering on behalf of this bot."),
	}
}

// RegistryConfig caps the number of registered clients.
type RegistryConfig struct {
	MaxClients int
}

func loadRegistryConfig() (RegistryConfig, error) {
	maxClients := 0
	if override, err := parseOptionalIntEnv("CLIENTS_MAX"); err != nil {
		return RegistryConfig{}, err
	} else if override != nil {
		maxClients = *override
	}
	return RegistryConfig{MaxClients: maxClients}, nil
}

// TelegramConfig is one Telegram bot client.
type TelegramConfig struct {
	ClientID     string
	BotToken     string
	WebhookToken string
}

// Enabled reports whether the bot credentials were provided.
func (c TelegramConfig) Enabled() bool {
	return c.ClientID != "" && c.BotToken != ""
}

func loadTelegramConfig() TelegramConfig {
	return TelegramConfig{
		ClientID:     strings.TrimSpace(os.Getenv("TELEGRAM_CLIENT_ID")),
		BotToken:     strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		WebhookToken: strings.TrimSpace(os.Getenv("TELEGRAM_WEBHOOK_TOKEN")),
	}
}

// WhatsAppConfig is one WhatsApp Cloud API client.
type WhatsAppConfig struct {
	ClientID      string
	AccessToken   string
	PhoneNumberID string
	WebhookToken  string
}

// Enabled reports whether the Cloud API credentials were provided.
func (c WhatsAppConfig) Enabled() bool {
	return c.ClientID != "" && c.AccessToken != "" && c.PhoneNumberID != ""
}

func loadWhatsAppConfig() WhatsAppConfig {
	return WhatsAppConfig{
		ClientID:      strings.TrimSpace(os.Getenv("WHATSAPP_CLIENT_ID")),
		AccessToken:   strings.TrimSpace(os.Getenv("WHATSAPP_ACCESS_TOKEN")),
		PhoneNumberID: strings.TrimSpace(os.Getenv("WHATSAPP_PHONE_NUMBER_ID")),
		WebhookToken:  strings.TrimSpace(os.Getenv("WHATSAPP_WEBHOOK_TOKEN")),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseSecondsEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	seconds, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if seconds == nil {
		return defaultValue, nil
	}
	if *seconds < 0 {
		return 0, fmt.Errorf("invalid %s value %d: must not be negative", key, *seconds)
	}
	return time.Duration(*seconds) * time.Second, nil
}
