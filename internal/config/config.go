package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DevJWTSecret signs tokens in dev mode when no secret is configured.
// Outside dev mode a missing secret fails validation.
const DevJWTSecret = "noteblog-dev-secret"

// Config holds the server settings.
type Config struct {
	Port        string `yaml:"port"`
	MongoURI    string `yaml:"mongodb_uri"`
	Database    string `yaml:"database"`
	JWTSecret   string `yaml:"jwt_secret"`
	FrontendURL string `yaml:"frontend_url"`
	StaticDir   string `yaml:"static_dir"`
	LogLevel    string `yaml:"log_level"`
	Dev         bool   `yaml:"dev"`
}

// Default returns a Config with sensible local development defaults.
func Default() *Config {
	return &Config{
		Port:        "5000",
		MongoURI:    "mongodb://localhost:27017",
		Database:    "noteblog",
		FrontendURL: "http://localhost:5173",
		LogLevel:    "info",
	}
}

// Load builds the configuration with priority: env vars > config file > defaults.
// An empty path falls back to CONFIG_FILE; a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.Database = getEnv("MONGODB_DATABASE", cfg.Database)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.FrontendURL = getEnv("FRONTEND_URL", cfg.FrontendURL)
	cfg.StaticDir = getEnv("STATIC_DIR", cfg.StaticDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("NOTEBLOG_DEV"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid NOTEBLOG_DEV %q", v)
		}
		cfg.Dev = dev
	}

	if cfg.Dev && cfg.JWTSecret == "" {
		cfg.JWTSecret = DevJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	switch {
	case c.MongoURI == "":
		return errors.New("mongodb_uri is required")
	case c.Database == "":
		return errors.New("database is required")
	case c.JWTSecret == "":
		return errors.New("jwt_secret is required (set JWT_SECRET, or NOTEBLOG_DEV=true for local development)")
	case c.Port == "":
		return errors.New("port is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logger returns a text logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
