// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// HookConfig provides the pre-shared secret for the inbound hook route.
type HookConfig interface {
	GetHookSecret() string
}

// BitrixConfig provides settings for the Bitrix24 CRM gateway.
type BitrixConfig interface {
	GetBitrixBase() string
	GetTrackingIDField() string
	GetTicketIDField() string
	GetActivityFallbackEmail() string
}

// CaptchaConfig provides settings for Turnstile verification.
type CaptchaConfig interface {
	GetTurnstileSecret() string
	IsCaptchaEnabled() bool
}

// RateLimitConfig provides settings for the submission rate limiter.
type RateLimitConfig interface {
	GetRedisURL() string
	GetRateLimitWindow() time.Duration
	UseMemoryRateLimit() bool
}

// EmailConfig provides settings for email notifications.
type EmailConfig interface {
	GetUnisenderAPIKey() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetEmailRecipient() string
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUser() string
	GetSMTPPass() string
}

// TelegramConfig provides settings for Telegram notifications.
type TelegramConfig interface {
	GetTelegramBotToken() string
	GetTelegramChatID() string
}

// IntakeConfig provides intake pipeline policy settings.
type IntakeConfig interface {
	GetBlockedPhonePrefixes() []string
	StrictPhonePolicy() bool
	GetFormTemplatesFile() string
}

// ClientConfig provides shared outbound HTTP client settings.
type ClientConfig interface {
	GetHTTPClientTimeout() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	CORSAllowAll          bool
	CORSOrigins           []string
	HookSecret            string
	BitrixBase            string
	TrackingIDField       string
	TicketIDField         string
	ActivityFallbackEmail string
	TurnstileSecret       string
	RedisURL              string
	RateLimitWindow       time.Duration
	RateLimitFallback     string
	UnisenderAPIKey       string
	EmailFromName         string
	EmailFromAddress      string
	EmailRecipient        string
	SMTPHost              string
	SMTPPort              int
	SMTPUser              string
	SMTPPass              string
	TelegramBotToken      string
	TelegramChatID        string
	BlockedPhonePrefixes  []string
	LeadPhonePolicy       string
	FormTemplatesFile     string
	HTTPClientTimeout     time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// HookConfig implementation
func (c *Config) GetHookSecret() string { return c.HookSecret }

// BitrixConfig implementation
func (c *Config) GetBitrixBase() string            { return c.BitrixBase }
func (c *Config) GetTrackingIDField() string       { return c.TrackingIDField }
func (c *Config) GetTicketIDField() string         { return c.TicketIDField }
func (c *Config) GetActivityFallbackEmail() string { return c.ActivityFallbackEmail }

// CaptchaConfig implementation
func (c *Config) GetTurnstileSecret() string { return c.TurnstileSecret }
func (c *Config) IsCaptchaEnabled() bool     { return c.TurnstileSecret != "" }

// RateLimitConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetRateLimitWindow() time.Duration  { return c.RateLimitWindow }
func (c *Config) UseMemoryRateLimit() bool           { return strings.EqualFold(c.RateLimitFallback, "memory") }

// EmailConfig implementation
func (c *Config) GetUnisenderAPIKey() string  { return c.UnisenderAPIKey }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetEmailRecipient() string   { return c.EmailRecipient }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUser() string         { return c.SMTPUser }
func (c *Config) GetSMTPPass() string         { return c.SMTPPass }

// TelegramConfig implementation
func (c *Config) GetTelegramBotToken() string { return c.TelegramBotToken }
func (c *Config) GetTelegramChatID() string   { return c.TelegramChatID }

// IntakeConfig implementation
func (c *Config) GetBlockedPhonePrefixes() []string { return c.BlockedPhonePrefixes }
func (c *Config) StrictPhonePolicy() bool           { return strings.EqualFold(c.LeadPhonePolicy, "strict") }
func (c *Config) GetFormTemplatesFile() string      { return c.FormTemplatesFile }

// ClientConfig implementation
func (c *Config) GetHTTPClientTimeout() time.Duration { return c.HTTPClientTimeout }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:          strings.EqualFold(getEnv("CORS_ALLOW_ALL", "true"), "true"),
		CORSOrigins:           splitCSV(getEnv("CORS_ORIGINS", "")),
		HookSecret:            getEnv("HOOK_SECRET", ""),
		BitrixBase:            strings.TrimRight(getEnv("BITRIX_BASE", ""), "/"),
		TrackingIDField:       getEnv("BITRIX_FIELD_TRACKING_ID", "UF_CRM_1760696365"),
		TicketIDField:         getEnv("BITRIX_FIELD_TICKET_ID", "UF_CRM_1651562833"),
		ActivityFallbackEmail: getEnv("ACTIVITY_FALLBACK_EMAIL", "info@enterio.ru"),
		TurnstileSecret:       getEnv("TURNSTILE_SECRET_KEY", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		RateLimitWindow:       mustDuration(getEnv("RATE_LIMIT_WINDOW", "1h")),
		RateLimitFallback:     getEnv("RATE_LIMIT_FALLBACK", ""),
		UnisenderAPIKey:       getEnv("UNISENDER_API_KEY", ""),
		EmailFromName:         getEnv("EMAIL_FROM_NAME", "Enterio"),
		EmailFromAddress:      getEnv("EMAIL_FROM_ADDRESS", "info@enterio.ru"),
		EmailRecipient:        getEnv("EMAIL_RECIPIENT", "zayavki@enterio.ru"),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUser:              getEnv("SMTP_USER", ""),
		SMTPPass:              getEnv("SMTP_PASS", ""),
		TelegramBotToken:      getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:        getEnv("TELEGRAM_CHAT_ID", ""),
		BlockedPhonePrefixes:  splitCSV(getEnv("BLOCKED_PHONE_PREFIXES", "+7927,8927")),
		LeadPhonePolicy:       getEnv("LEAD_PHONE_POLICY", "lenient"),
		FormTemplatesFile:     getEnv("FORM_TEMPLATES_FILE", ""),
		HTTPClientTimeout:     mustDuration(getEnv("HTTP_CLIENT_TIMEOUT", "10s")),
	}

	if cfg.HookSecret == "" {
		return nil, fmt.Errorf("HOOK_SECRET is required")
	}
	if cfg.RateLimitWindow <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW must be a positive duration")
	}
	if cfg.HTTPClientTimeout <= 0 {
		return nil, fmt.Errorf("HTTP_CLIENT_TIMEOUT must be a positive duration")
	}
	if policy := strings.ToLower(cfg.LeadPhonePolicy); policy != "lenient" && policy != "strict" {
		return nil, fmt.Errorf("LEAD_PHONE_POLICY must be lenient or strict")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	var result int
	if _, err := fmt.Sscanf(value, "%d", &result); err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
