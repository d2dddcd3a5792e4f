package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/postbot/internal/auth"
	"github.com/florianilch/postbot/internal/identity"
	"github.com/florianilch/postbot/internal/llm"
	"github.com/florianilch/postbot/internal/observability"
	"github.com/florianilch/postbot/internal/social"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = observability.FormatText
	LogFormatJSON LogFormat = observability.FormatJSON
	LogFormatOTel LogFormat = observability.FormatOTel
)

// StorageType represents where the token set is persisted.
type StorageType string

const (
	StorageTypeMemory   StorageType = "memory"
	StorageTypeFile     StorageType = "file"
	StorageTypeEnv      StorageType = "env"
	StorageTypeKeyring  StorageType = "keyring"
	StorageTypeRedis    StorageType = "redis"
	StorageTypeSQLite   StorageType = "sqlite"
	StorageTypePostgres StorageType = "postgres"
)

// PendingType represents where in-flight authorization attempts are kept.
type PendingType string

const (
	PendingTypeMemory PendingType = "memory"
	PendingTypeRedis  PendingType = "redis"
)

// LLMProvider represents the text generation backend.
type LLMProvider string

const (
	LLMProviderOllama    LLMProvider = "ollama"
	LLMProviderAnthropic LLMProvider = "anthropic"
)

// Default configuration values
const (
	DefaultConfigLogFormat       = LogFormatText
	DefaultConfigServerHost      = "127.0.0.1"
	DefaultConfigServerPort      = 3000
	DefaultConfigShutdownTimeout = 5 * time.Second
	DefaultConfigRedirectURL     = "http://127.0.0.1:3000/callback"
	DefaultConfigStorageType     = StorageTypeFile
	DefaultConfigPendingType     = PendingTypeMemory
	DefaultConfigLLMProvider     = LLMProviderOllama
	DefaultConfigAPIBaseURL      = social.DefaultBaseURL

	keyringService = "postbot-credentials"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// OAuthConfig holds the client registration and token lifecycle settings.
type OAuthConfig struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret,omitempty"` // Empty for public clients

	// RedirectURL must match the callback registered with the provider.
	RedirectURL string   `json:"redirect_url" validate:"required,url"`
	Scopes      []string `json:"scopes" validate:"min=1"`
	AuthURL     string   `json:"auth_url" validate:"required,url"`
	TokenURL    string   `json:"token_url" validate:"required,url"`

	// StateTTL is how long an authorization URL stays redeemable.
	StateTTL time.Duration `json:"state_ttl" validate:"gt=0"`

	// RefreshMargin refreshes access tokens this long before they expire.
	RefreshMargin time.Duration `json:"refresh_margin" validate:"gte=0"`

	// Timeout bounds every token endpoint call.
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
}

// StorageConfig describes where the token set is persisted.
type StorageConfig struct {
	Type StorageType `json:"type" validate:"required,oneof=memory file env keyring redis sqlite postgres"`

	// Type-specific settings
	File        string `json:"file,omitempty"`         // file: path to the credentials file
	EnvKey      string `json:"env_key,omitempty"`      // env: variable holding a refresh token
	KeyringUser string `json:"keyring_user,omitempty"` // keyring: user identifier
	RedisKey    string `json:"redis_key,omitempty"`    // redis: key holding the token set
	SQLitePath  string `json:"sqlite_path,omitempty"`  // sqlite: database file
	PostgresURL string `json:"postgres_url,omitempty"` // postgres: connection URL
}

// PendingConfig describes where in-flight authorization attempts live.
type PendingConfig struct {
	Type PendingType `json:"type" validate:"required,oneof=memory redis"`
}

// RedisConfig holds the shared Redis connection.
type RedisConfig struct {
	URL string `json:"url,omitempty" validate:"omitempty,url"`
}

// LLMConfig selects and configures the text generator.
type LLMConfig struct {
	Provider LLMProvider `json:"provider" validate:"required,oneof=ollama anthropic"`
	BaseURL  string      `json:"base_url,omitempty" validate:"omitempty,url"`
	Model    string      `json:"model,omitempty"`
	APIKey   string      `json:"api_key,omitempty"`
}

// APIConfig holds the social API settings.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
}

// ScheduleConfig holds the intervals of the automatic jobs. Zero disables a job.
type ScheduleConfig struct {
	PostInterval  time.Duration `json:"post_interval" validate:"gte=0"`
	QuoteInterval time.Duration `json:"quote_interval" validate:"gte=0"`
}

// BotConfig holds what the bot writes about and whom it quotes.
type BotConfig struct {
	Topics   []string `json:"topics,omitempty"`
	Creators []string `json:"creators,omitempty"` // User IDs
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level     `json:"log_level"`
	LogFormat LogFormat      `json:"log_format" validate:"oneof=text json otel"`
	Server    ServerConfig   `json:"server"`
	Shutdown  ShutdownConfig `json:"shutdown"`
	OAuth     OAuthConfig    `json:"oauth"`
	Storage   StorageConfig  `json:"storage"`
	Pending   PendingConfig  `json:"pending"`
	Redis     RedisConfig    `json:"redis"`
	LLM       LLMConfig      `json:"llm"`
	API       APIConfig      `json:"api"`
	Schedule  ScheduleConfig `json:"schedule"`
	Bot       BotConfig      `json:"bot"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}

	if c.OAuth.RedirectURL == "" {
		c.OAuth.RedirectURL = DefaultConfigRedirectURL
	}
	if len(c.OAuth.Scopes) == 0 {
		c.OAuth.Scopes = identity.DefaultScopes
	}
	if c.OAuth.AuthURL == "" {
		c.OAuth.AuthURL = identity.Endpoint.AuthURL
	}
	if c.OAuth.TokenURL == "" {
		c.OAuth.TokenURL = identity.Endpoint.TokenURL
	}
	if c.OAuth.StateTTL == 0 {
		c.OAuth.StateTTL = auth.DefaultStateTTL
	}
	if c.OAuth.Timeout == 0 {
		c.OAuth.Timeout = auth.DefaultProviderTimeout
	}

	if c.Storage.Type == "" {
		c.Storage.Type = DefaultConfigStorageType
	}
	if c.Pending.Type == "" {
		c.Pending.Type = DefaultConfigPendingType
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = DefaultConfigLLMProvider
	}
	if c.LLM.Provider == LLMProviderOllama {
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = llm.DefaultOllamaURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = llm.DefaultOllamaModel
		}
	}

	// Dynamic defaults based on storage type
	switch c.Storage.Type {
	case StorageTypeFile:
		if c.Storage.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("storage.file required (auto-detect failed: %w)", err)
			}
			c.Storage.File = filepath.Join(configDir, "postbot", "credentials.json")
		}
	case StorageTypeSQLite:
		if c.Storage.SQLitePath == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("storage.sqlite_path required (auto-detect failed: %w)", err)
			}
			c.Storage.SQLitePath = filepath.Join(configDir, "postbot", "postbot.db")
		}
	case StorageTypeKeyring:
		if c.Storage.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("storage.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Storage.KeyringUser = currentUser.Username
		}
	case StorageTypeEnv, StorageTypeRedis, StorageTypePostgres, StorageTypeMemory:
		// Connection settings must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Storage.Type {
	case StorageTypeFile:
		if c.Storage.File == "" {
			return errors.New("file path required for file storage")
		}
	case StorageTypeEnv:
		if c.Storage.EnvKey == "" {
			return errors.New("env_key required for env storage")
		}
	case StorageTypeKeyring:
		if c.Storage.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	case StorageTypeRedis:
		if c.Redis.URL == "" {
			return errors.New("redis.url required for redis storage")
		}
	case StorageTypeSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("sqlite_path required for sqlite storage")
		}
	case StorageTypePostgres:
		if c.Storage.PostgresURL == "" {
			return errors.New("postgres_url required for postgres storage")
		}
	}

	if c.Pending.Type == PendingTypeRedis && c.Redis.URL == "" {
		return errors.New("redis.url required for redis pending store")
	}

	if c.LLM.Provider == LLMProviderAnthropic && c.LLM.APIKey == "" {
		return errors.New("llm.api_key required for anthropic provider")
	}

	if c.Schedule.QuoteInterval > 0 && len(c.Bot.Creators) == 0 {
		return errors.New("bot.creators required when quoting is scheduled")
	}

	return nil
}

// usesRedis reports whether any component needs the Redis connection.
func (c *Config) usesRedis() bool {
	return c.Storage.Type == StorageTypeRedis || c.Pending.Type == PendingTypeRedis
}
