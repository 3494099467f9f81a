// Package config loads service settings from the environment and rules
// presets from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds the service settings.
type Config struct {
	Addr            string        // TRACTOR_ADDR, listen address
	RedisURL        string        // REDIS_URL; empty disables the explain cache
	DatabaseURL     string        // DATABASE_URL; empty disables stored presets
	JWTSecret       string        // JWT_SECRET, HS256 signing key
	PresetDir       string        // PRESET_DIR; empty disables YAML presets
	ExplainCacheTTL time.Duration // EXPLAIN_CACHE_TTL
	LogLevel        string        // LOG_LEVEL
	LogFormat       string        // LOG_FORMAT, "text" or "json"
}

// Load reads envFiles (".env" when none are given) into the environment
// without overriding variables already set, then builds a Config. Missing
// env files are ignored.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Addr:        getenv("TRACTOR_ADDR", ":8080"),
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		PresetDir:   os.Getenv("PRESET_DIR"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "text"),
	}

	var problems []string
	ttl, err := time.ParseDuration(getenv("EXPLAIN_CACHE_TTL", "24h"))
	if err != nil {
		problems = append(problems, fmt.Sprintf("EXPLAIN_CACHE_TTL: %v", err))
	}
	cfg.ExplainCacheTTL = ttl
	if cfg.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("LOG_LEVEL: %v", err))
	}
	if f := strings.ToLower(cfg.LogFormat); f != "text" && f != "json" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT: unknown format %q", cfg.LogFormat))
	}
	if len(problems) > 0 {
		return Config{}, errors.New(strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// NewLogger builds the service logger.
func NewLogger(cfg Config, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(level)
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
