package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. POWERBRIEF_DATABASE_DSN.
const EnvPrefix = "POWERBRIEF"

// Config is the full set of application settings
type Config struct {
	Server     ServerSettings     `mapstructure:"server"`
	Database   DatabaseSettings   `mapstructure:"database"`
	Logger     LoggerSettings     `mapstructure:"logger"`
	Auth       AuthSettings       `mapstructure:"auth"`
	Slack      SlackSettings      `mapstructure:"slack"`
	SendGrid   SendGridSettings   `mapstructure:"sendgrid"`
	Meta       MetaSettings       `mapstructure:"meta"`
	N8N        N8NSettings        `mapstructure:"n8n"`
	AI         AISettings         `mapstructure:"ai"`
	ElevenLabs ElevenLabsSettings `mapstructure:"elevenlabs"`
	Storage    StorageSettings    `mapstructure:"storage"`
	Scorecard  ScorecardSettings  `mapstructure:"scorecard"`
}

// legacyEnv keeps the plain variable names older deployments were started with.
var legacyEnv = map[string]string{
	"server.port":          "PORT",
	"server.cookie_domain": "DOMAIN",
	"server.public_url":    "CLIENT_URL",
	"auth.jwt_secret":      "JWT_SECRET",
	"database.dsn":         "DATABASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("server.cookie_domain", "")
	v.SetDefault("server.public_url", "")

	v.SetDefault("database.type", PostgresDbType)
	v.SetDefault("database.dsn", "")

	v.SetDefault("logger.log_level", LogLevelInfo)
	v.SetDefault("logger.log_type", LogTypeConsole)
	v.SetDefault("logger.file_path", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 28)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 168*time.Hour)

	v.SetDefault("slack.default_webhook_url", "")

	v.SetDefault("sendgrid.api_key", "")
	v.SetDefault("sendgrid.from_email", "")
	v.SetDefault("sendgrid.from_name", "PowerBrief")

	v.SetDefault("meta.access_token", "")
	v.SetDefault("meta.api_version", "v22.0")
	v.SetDefault("meta.base_url", "https://graph.facebook.com")

	v.SetDefault("n8n.base_url", "")
	v.SetDefault("n8n.api_key", "")
	v.SetDefault("n8n.callback_secret", "")
	v.SetDefault("n8n.callback_base_url", "")
	v.SetDefault("n8n.execution_timeout", 30*time.Minute)
	v.SetDefault("n8n.workflows", map[string]string{
		WorkflowCreatorApplication:  "/webhook/creator-application",
		WorkflowCreatorStatusChange: "/webhook/creator-status-change",
		WorkflowScriptAssigned:      "/webhook/script-assigned",
		WorkflowContractSigned:      "/webhook/contract-signed",
	})

	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")

	v.SetDefault("elevenlabs.api_key", "")
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.default_voice_id", "")
	v.SetDefault("elevenlabs.model_id", "eleven_multilingual_v2")

	v.SetDefault("storage.type", StorageTypeLocal)
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("storage.public_base_url", "/files")
	v.SetDefault("storage.supabase_url", "")
	v.SetDefault("storage.service_key", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.max_upload_mb", 500)

	v.SetDefault("scorecard.sync_interval", 6*time.Hour)
}

// Load reads settings from the YAML file at path (optional) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		envName := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envName, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.BindEnv("allowed_origins_extra", "ALLOWED_ORIGINS"); err != nil {
		return nil, fmt.Errorf("failed to bind allowed origins: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if extra := v.GetString("allowed_origins_extra"); extra != "" {
		cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, splitList(extra)...)
	}

	if cfg.Server.PublicURL != "" {
		cfg.Server.AllowedOrigins = append(cfg.Server.AllowedOrigins, strings.TrimSuffix(cfg.Server.PublicURL, "/"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs every settings group's validation.
func (c *Config) Validate() error {
	validators := []interface{ Validate() error }{
		&c.Server, &c.Database, &c.Logger, &c.Auth, &c.Slack, &c.SendGrid,
		&c.Meta, &c.N8N, &c.AI, &c.ElevenLabs, &c.Storage, &c.Scorecard,
	}

	for _, s := range validators {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
