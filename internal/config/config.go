// Package config loads service settings from defaults, an optional YAML file,
// a .env file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Flag store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// DefaultShareText is the invitation placed in front of the group link.
const DefaultShareText = "Hey Buddy, Join Tech For Girls Community\n\nJoin our WhatsApp group: "

// DefaultGroupLink is the community group-join link.
const DefaultGroupLink = "https://chat.whatsapp.com/JhI9mzju3Dq7647A1U3zuY?mode=ac_c"

// Database holds PostgreSQL connection settings.
type Database struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds a libpq-compatible connection string.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// Redis holds Redis connection settings.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Config is the full service configuration.
type Config struct {
	Port        string        `yaml:"port"`
	GatewayURL  string        `yaml:"gateway_url"`
	ShareText   string        `yaml:"share_text"`
	GroupLink   string        `yaml:"group_link"`
	FlagBackend string        `yaml:"flag_backend"`
	Database    Database      `yaml:"database"`
	Redis       Redis         `yaml:"redis"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	RateLimit   float64       `yaml:"rate_limit"`
	RateBurst   int           `yaml:"rate_burst"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
}

// Default returns local-development defaults.
func Default() Config {
	return Config{
		Port:        "8080",
		ShareText:   DefaultShareText,
		GroupLink:   DefaultGroupLink,
		FlagBackend: BackendMemory,
		Database: Database{
			Host:     "localhost",
			Port:     "5432",
			User:     "postgres",
			Password: "postgres",
			Name:     "registration",
			SSLMode:  "disable",
		},
		Redis:      Redis{Addr: "localhost:6379"},
		LogLevel:   "info",
		LogFormat:  "console",
		RateLimit:  10,
		RateBurst:  20,
		SessionTTL: 2 * time.Hour,
	}
}

// Load builds a Config from defaults, the YAML file at path (if non-empty),
// a .env file in the working directory (if present) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.GatewayURL = getEnv("REGFORM_GATEWAY_URL", c.GatewayURL)
	c.ShareText = getEnv("REGFORM_SHARE_TEXT", c.ShareText)
	c.GroupLink = getEnv("REGFORM_GROUP_LINK", c.GroupLink)
	c.FlagBackend = getEnv("REGFORM_FLAG_BACKEND", c.FlagBackend)
	c.LogLevel = getEnv("REGFORM_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("REGFORM_LOG_FORMAT", c.LogFormat)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnv("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Redis.Addr = getEnv("REGFORM_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REGFORM_REDIS_PASSWORD", c.Redis.Password)

	if v := os.Getenv("REGFORM_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REGFORM_REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	if v := os.Getenv("REGFORM_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid REGFORM_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v := os.Getenv("REGFORM_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REGFORM_RATE_BURST: %w", err)
		}
		c.RateBurst = n
	}
	if v := os.Getenv("REGFORM_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REGFORM_SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	return nil
}

// Validate checks that the configuration can start a server.
func (c Config) Validate() error {
	if c.GatewayURL == "" {
		return errors.New("gateway url is required (use --gateway-url or REGFORM_GATEWAY_URL)")
	}
	switch c.FlagBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("unknown flag backend %q", c.FlagBackend)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.RateLimit <= 0 || c.RateBurst <= 0 {
		return errors.New("rate limit and burst must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}

// ShareMessage returns the full text placed into a share intent.
func (c Config) ShareMessage() string {
	return c.ShareText + c.GroupLink
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
