// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOPublicBaseURL() string
	GetMinioBucketChatAttachments() string
	IsMinIOEnabled() bool
}

// UploadConfig provides limits for attachment uploads and re-fetches.
type UploadConfig interface {
	GetUploadMaxBytes() int64
	GetAttachmentFetchTimeout() time.Duration
}

// GatewayConfig provides settings for the automation webhook.
type GatewayConfig interface {
	GetAutomationWebhookURL() string
	GetGatewayTextTimeout() time.Duration
	GetGatewayImageTimeout() time.Duration
}

// SchedulerConfig provides settings for the asynq queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SMTPConfig provides settings for support-desk notification emails.
type SMTPConfig interface {
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetSupportInboxAddress() string
	IsEmailEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                        string
	HTTPAddr                   string
	DatabaseURL                string
	JWTAccessSecret            string
	CORSAllowAll               bool
	CORSOrigins                []string
	CORSAllowCreds             bool
	AutomationWebhookURL       string
	GatewayTextTimeout         time.Duration
	GatewayImageTimeout        time.Duration
	UploadMaxBytes             int64
	AttachmentFetchTimeout     time.Duration
	MinIOEndpoint              string
	MinIOAccessKey             string
	MinIOSecretKey             string
	MinIOUseSSL                bool
	MinIOPublicBaseURL         string
	MinioBucketChatAttachments string
	RedisURL                   string
	RedisTLSInsecure           bool
	AsynqQueueName             string
	AsynqConcurrency           int
	SMTPHost                   string
	SMTPPort                   int
	SMTPUsername               string
	SMTPPassword               string
	EmailFromName              string
	EmailFromAddress           string
	SupportInboxAddress        string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetMinIOPublicBaseURL() string {
	if c.MinIOPublicBaseURL != "" {
		return strings.TrimRight(c.MinIOPublicBaseURL, "/")
	}
	scheme := "http"
	if c.MinIOUseSSL {
		scheme = "https"
	}
	return scheme + "://" + c.MinIOEndpoint
}
func (c *Config) GetMinioBucketChatAttachments() string { return c.MinioBucketChatAttachments }
func (c *Config) IsMinIOEnabled() bool                  { return c.MinIOEndpoint != "" }

// UploadConfig implementation
func (c *Config) GetUploadMaxBytes() int64                 { return c.UploadMaxBytes }
func (c *Config) GetAttachmentFetchTimeout() time.Duration { return c.AttachmentFetchTimeout }

// GatewayConfig implementation
func (c *Config) GetAutomationWebhookURL() string       { return c.AutomationWebhookURL }
func (c *Config) GetGatewayTextTimeout() time.Duration  { return c.GatewayTextTimeout }
func (c *Config) GetGatewayImageTimeout() time.Duration { return c.GatewayImageTimeout }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// SMTPConfig implementation
func (c *Config) GetSMTPHost() string            { return c.SMTPHost }
func (c *Config) GetSMTPPort() int               { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string        { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string        { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string       { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string    { return c.EmailFromAddress }
func (c *Config) GetSupportInboxAddress() string { return c.SupportInboxAddress }
func (c *Config) IsEmailEnabled() bool           { return c.SMTPHost != "" && c.SupportInboxAddress != "" }

// Load reads configuration from environment variables (and a .env file when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                        getEnv("APP_ENV", "development"),
		HTTPAddr:                   getEnv("HTTP_ADDR", ":3000"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		JWTAccessSecret:            getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:               corsAllowAll,
		CORSOrigins:                corsOrigins,
		CORSAllowCreds:             strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AutomationWebhookURL:       getEnv("AUTOMATION_WEBHOOK_URL", ""),
		GatewayTextTimeout:         mustDuration(getEnv("GATEWAY_TEXT_TIMEOUT", "5m")),
		GatewayImageTimeout:        mustDuration(getEnv("GATEWAY_IMAGE_TIMEOUT", "15m")),
		UploadMaxBytes:             mustInt64(getEnv("UPLOAD_MAX_BYTES", "5242880")),
		AttachmentFetchTimeout:     mustDuration(getEnv("ATTACHMENT_FETCH_TIMEOUT", "15s")),
		MinIOEndpoint:              getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:             getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:             getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:                strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOPublicBaseURL:         getEnv("MINIO_PUBLIC_BASE_URL", ""),
		MinioBucketChatAttachments: getEnv("MINIO_BUCKET_CHAT_ATTACHMENTS", "chat-attachments"),
		RedisURL:                   getEnv("REDIS_URL", ""),
		RedisTLSInsecure:           strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:             getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:           int(mustInt64(getEnv("ASYNQ_CONCURRENCY", "10"))),
		SMTPHost:                   getEnv("SMTP_HOST", ""),
		SMTPPort:                   int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:               getEnv("SMTP_USERNAME", ""),
		SMTPPassword:               getEnv("SMTP_PASSWORD", ""),
		EmailFromName:              getEnv("EMAIL_FROM_NAME", "Help Desk"),
		EmailFromAddress:           getEnv("EMAIL_FROM_ADDRESS", ""),
		SupportInboxAddress:        getEnv("SUPPORT_INBOX_ADDRESS", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if c.AutomationWebhookURL == "" {
		return fmt.Errorf("AUTOMATION_WEBHOOK_URL is required")
	}
	if c.GatewayTextTimeout <= 0 || c.GatewayImageTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TEXT_TIMEOUT and GATEWAY_IMAGE_TIMEOUT must be positive durations")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.IsEmailEnabled() && c.EmailFromAddress == "" {
		return fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	return nil
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

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
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

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
