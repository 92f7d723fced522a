package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ServerSettings controls the HTTP listener and browser-facing URLs
type ServerSettings struct {
	Port           string   `mapstructure:"port" validate:"required,numeric"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	CookieDomain   string   `mapstructure:"cookie_domain"`
	PublicURL      string   `mapstructure:"public_url" validate:"omitempty,url"`
}

// Validate checks that all fields in ServerSettings are valid
func (s *ServerSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for ServerSettings: %w", err)
	}
	return nil
}

// DatabaseSettings holds the connection settings of the primary store
type DatabaseSettings struct {
	Type string `mapstructure:"type" validate:"required,oneof=postgres sqlite"`
	DSN  string `mapstructure:"dsn"`
}

// Validate checks that all fields in DatabaseSettings are valid
func (s *DatabaseSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for DatabaseSettings: %w", err)
	}
	if s.Type == PostgresDbType && s.DSN == "" {
		return fmt.Errorf("dsn is required for postgres")
	}
	return nil
}

// LoggerSettings holds configuration settings for logging, including log level, type and file path
type LoggerSettings struct {
	LogLevel   string `mapstructure:"log_level" validate:"required,oneof=info debug error warning critical"`
	LogType    string `mapstructure:"log_type" validate:"required,oneof=console file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// Validate checks that all fields in LoggerSettings are valid
func (s *LoggerSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for LoggerSettings: %w", err)
	}

	if s.LogType == LogTypeFile {
		if s.FilePath == "" {
			return fmt.Errorf("file path is required for file logger")
		}
		if s.MaxSize < 1 || s.MaxSize > 100 {
			return fmt.Errorf("max size must be between 1 and 100 MB")
		}
		if s.MaxBackups < 1 || s.MaxBackups > 10 {
			return fmt.Errorf("max backups must be between 1 and 10")
		}
		if s.MaxAge < 1 || s.MaxAge > 365 {
			return fmt.Errorf("max age must be between 1 and 365 days")
		}
	}

	return nil
}

// AuthSettings configures session tokens
type AuthSettings struct {
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required,min=16"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"required"`
}

func (s *AuthSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for AuthSettings: %w", err)
	}
	return nil
}

// SlackSettings only carries the fallback webhook; brands normally bring their own.
type SlackSettings struct {
	DefaultWebhookURL string `mapstructure:"default_webhook_url" validate:"omitempty,url"`
}

func (s *SlackSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for SlackSettings: %w", err)
	}
	return nil
}

type SendGridSettings struct {
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email" validate:"omitempty,email"`
	FromName  string `mapstructure:"from_name"`
}

func (s *SendGridSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for SendGridSettings: %w", err)
	}
	if s.APIKey != "" && s.FromEmail == "" {
		return fmt.Errorf("from_email is required when a SendGrid api key is set")
	}
	return nil
}

type MetaSettings struct {
	AccessToken string `mapstructure:"access_token"`
	APIVersion  string `mapstructure:"api_version" validate:"required"`
	BaseURL     string `mapstructure:"base_url" validate:"required,url"`
}

func (s *MetaSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for MetaSettings: %w", err)
	}
	return nil
}

// N8NSettings maps workflow names to webhook paths on the n8n instance
type N8NSettings struct {
	BaseURL          string            `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey           string            `mapstructure:"api_key"`
	CallbackSecret   string            `mapstructure:"callback_secret"`
	CallbackBaseURL  string            `mapstructure:"callback_base_url" validate:"omitempty,url"`
	ExecutionTimeout time.Duration     `mapstructure:"execution_timeout" validate:"required"`
	Workflows        map[string]string `mapstructure:"workflows"`
}

func (s *N8NSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for N8NSettings: %w", err)
	}
	return nil
}

type AISettings struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model" validate:"required"`
}

func (s *AISettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for AISettings: %w", err)
	}
	return nil
}

type ElevenLabsSettings struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url" validate:"required,url"`
	DefaultVoiceID string `mapstructure:"default_voice_id"`
	ModelID        string `mapstructure:"model_id" validate:"required"`
}

func (s *ElevenLabsSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for ElevenLabsSettings: %w", err)
	}
	return nil
}

// StorageSettings selects where uploaded documents and media are kept
type StorageSettings struct {
	Type          string `mapstructure:"type" validate:"required,oneof=local supabase"`
	LocalDir      string `mapstructure:"local_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	SupabaseURL   string `mapstructure:"supabase_url" validate:"omitempty,url"`
	ServiceKey    string `mapstructure:"service_key"`
	Bucket        string `mapstructure:"bucket"`
	MaxUploadMB   int64  `mapstructure:"max_upload_mb" validate:"min=1"`
}

func (s *StorageSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed for StorageSettings: %w", err)
	}

	switch s.Type {
	case StorageTypeLocal:
		if s.LocalDir == "" {
			return fmt.Errorf("local_dir is required for local storage")
		}
	case StorageTypeSupabase:
		if s.SupabaseURL == "" || s.ServiceKey == "" || s.Bucket == "" {
			return fmt.Errorf("supabase_url, service_key and bucket are required for supabase storage")
		}
	}

	return nil
}

type ScorecardSettings struct {
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

func (s *ScorecardSettings) Validate() error {
	if s.SyncInterval != 0 && s.SyncInterval < time.Minute {
		return fmt.Errorf("scorecard sync interval must be at least one minute")
	}
	return nil
}
