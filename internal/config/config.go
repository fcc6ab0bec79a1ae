// Package config loads SafeRice settings from an optional YAML file and the
// environment. Environment variables (and .env) always win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/AbdulRehmanZia/rice-quality--checker-app/internal/database"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath       = "saferice.yaml"
	DefaultStateFile  = "saferice-state.json"
	DefaultPort       = 8080
	DefaultUploadSize = 10 << 20
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	Env           string `yaml:"env"`             // "local" | "production"
	SessionSecret string `yaml:"session_secret"`  // signs flash cookies and API tokens
	MaxUploadSize int64  `yaml:"max_upload_size"` // bytes
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"` // e.g. "60s"
}

type AuthConfig struct {
	LoginDelay string `yaml:"login_delay"` // e.g. "500ms"
	TokenTTL   string `yaml:"token_ttl"`   // e.g. "24h"
}

type StorageConfig struct {
	StateFile string          `yaml:"state_file"`
	Postgres  database.Config `yaml:"postgres"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads the file at path (missing is fine), applies environment
// overrides and defaults. An empty path uses SAFERICE_CONFIG or DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SAFERICE_CONFIG")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil && v > 0 {
		cfg.Server.Port = v
	}
	setString(&cfg.Server.Env, "APP_ENV")
	setString(&cfg.Server.SessionSecret, "SESSION_SECRET")
	setString(&cfg.Gemini.APIKey, "GOOGLE_API_KEY")
	setString(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "GEMINI_MODEL")
	setString(&cfg.Auth.LoginDelay, "SAFERICE_LOGIN_DELAY")
	setString(&cfg.Storage.StateFile, "SAFERICE_STATE_FILE")
	setString(&cfg.Logging.Level, "LOG_LEVEL")

	pg := &cfg.Storage.Postgres
	setString(&pg.Host, "BLUEPRINT_DB_HOST")
	setString(&pg.Port, "BLUEPRINT_DB_PORT")
	setString(&pg.Username, "BLUEPRINT_DB_USERNAME")
	setString(&pg.Password, "BLUEPRINT_DB_PASSWORD")
	setString(&pg.Database, "BLUEPRINT_DB_DATABASE")
	setString(&pg.Schema, "BLUEPRINT_DB_SCHEMA")
}

// setString overwrites *dst when key is set to a non-empty value.
func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = "local"
	}
	if cfg.Server.MaxUploadSize <= 0 {
		cfg.Server.MaxUploadSize = DefaultUploadSize
	}
	if cfg.Server.SessionSecret == "" && !cfg.IsProduction() {
		cfg.Server.SessionSecret = "saferice-local-development-secret"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Gemini.Timeout == "" {
		cfg.Gemini.Timeout = "60s"
	}
	if cfg.Auth.LoginDelay == "" {
		cfg.Auth.LoginDelay = "500ms"
	}
	if cfg.Auth.TokenTTL == "" {
		cfg.Auth.TokenTTL = "24h"
	}
	if cfg.Storage.StateFile == "" {
		cfg.Storage.StateFile = DefaultStateFile
	}
	if cfg.Storage.Postgres.Port == "" {
		cfg.Storage.Postgres.Port = "5432"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks the settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Server.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when APP_ENV=%s", c.Server.Env)
	}
	for name, v := range map[string]string{
		"gemini.timeout":   c.Gemini.Timeout,
		"auth.login_delay": c.Auth.LoginDelay,
		"auth.token_ttl":   c.Auth.TokenTTL,
	} {
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("invalid %s %q", name, v)
		}
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level %q: %w", c.Logging.Level, err)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production")
}

// UsePostgres reports whether a database host was configured.
func (c *Config) UsePostgres() bool {
	return c.Storage.Postgres.Host != ""
}

func (c *Config) GeminiTimeout() time.Duration { return mustDuration(c.Gemini.Timeout) }
func (c *Config) LoginDelay() time.Duration    { return mustDuration(c.Auth.LoginDelay) }
func (c *Config) TokenTTL() time.Duration      { return mustDuration(c.Auth.TokenTTL) }

// mustDuration is only used on values Validate accepted.
func mustDuration(v string) time.Duration {
	d, _ := time.ParseDuration(v)
	return d
}

// SetupLogger configures the global zerolog logger.
func (c *Config) SetupLogger() {
	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if c.Logging.Pretty || !c.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
