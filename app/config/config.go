// Package config loads blogpress settings from defaults, an optional YAML
// file and BLOGPRESS_* environment variables, in increasing priority.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"blogpress/app/validation"
)

const (
	// EnvPrefix marks environment variables read as configuration.
	EnvPrefix = "BLOGPRESS_"
	// ConfigPathEnvVar names an explicit config file.
	ConfigPathEnvVar = EnvPrefix + "CONFIG"
)

// DefaultConfigPaths are tried in order when no path is given.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Sessions SessionsConfig `koanf:"sessions"`
	Auth     AuthConfig     `koanf:"auth"`
	Admin    AdminConfig    `koanf:"admin"`
	Avatar   AvatarConfig   `koanf:"avatar"`
	Logging  LoggingConfig  `koanf:"logging"`
	Data     DataConfig     `koanf:"data"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// CookieKey signs flash cookies. Empty draws a random key at startup.
	CookieKey string `koanf:"cookie_key" validate:"omitempty,min=32"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type SessionsConfig struct {
	Path         string        `koanf:"path"`
	InMemory     bool          `koanf:"in_memory"`
	TTL          time.Duration `koanf:"ttl" validate:"gt=0"`
	CookieName   string        `koanf:"cookie_name" validate:"required"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

type AuthConfig struct {
	PBKDF2Iterations  int `koanf:"pbkdf2_iterations" validate:"gte=1"`
	SaltLength        int `koanf:"salt_length" validate:"gte=1"`
	MinPasswordLength int `koanf:"min_password_length" validate:"gte=1"`
}

// AdminConfig names an account that is created as admin on startup.
type AdminConfig struct {
	Name             string `koanf:"name"`
	Email            string `koanf:"email" validate:"omitempty,email"`
	Password         string `koanf:"password" validate:"required_with=Email"`
	FirstUserIsAdmin bool   `koanf:"first_user_is_admin"`
}

type AvatarConfig struct {
	Enabled  bool          `koanf:"enabled"`
	BaseURL  string        `koanf:"base_url" validate:"required,url"`
	Size     int           `koanf:"size" validate:"gt=0"`
	Timeout  time.Duration `koanf:"timeout" validate:"gte=0"`
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type DataConfig struct {
	BackupDir string `koanf:"backup_dir" validate:"required"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "data/blog.db",
		},
		Sessions: SessionsConfig{
			Path:       "data/sessions",
			TTL:        24 * time.Hour,
			CookieName: "blogpress_session",
		},
		Auth: AuthConfig{
			PBKDF2Iterations:  600000,
			SaltLength:        8,
			MinPasswordLength: 8,
		},
		Admin: AdminConfig{
			Name:             "Admin",
			FirstUserIsAdmin: true,
		},
		Avatar: AvatarConfig{
			Enabled:  true,
			BaseURL:  "https://www.gravatar.com/avatar",
			Size:     100,
			Timeout:  2 * time.Second,
			CacheTTL: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Data: DataConfig{
			BackupDir: "backups",
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// $BLOGPRESS_CONFIG and then DefaultConfigPaths are tried.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validation.Struct(c)
}

// envKey maps BLOGPRESS_SERVER__READ_TIMEOUT to server.read_timeout.
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		return envPath
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
