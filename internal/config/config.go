// Package config loads engine configuration from a YAML file, expanding
// ${VAR} references from the environment, and falls back to plain
// environment variables when no file is given. Defaults are tuned for
// local development against a dockerized Postgres.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the reconciliation service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Matching MatchingConfig `yaml:"matching"`
	Events   EventsConfig   `yaml:"events"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DatabaseConfig holds Postgres connection settings. URL wins when set;
// otherwise the DSN is assembled from the individual fields.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the connection string handed to the Postgres driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// MatchingConfig holds the scoring and candidate-generation knobs.
type MatchingConfig struct {
	ToleranceDays      int           `yaml:"tolerance_days"`
	AmountTolerance    float64       `yaml:"amount_tolerance"`
	MaxCandidates      int           `yaml:"max_candidates"`
	MinMatchScore      int           `yaml:"min_match_score"`
	AutoMatchThreshold int           `yaml:"auto_match_threshold"`
	Weights            WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds the integer weights of the three similarity
// signals. They must sum to 100.
type WeightsConfig struct {
	Amount int `yaml:"amount"`
	Date   int `yaml:"date"`
	Text   int `yaml:"text"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "reconciliation",
			SSLMode: "disable",
		},
		Matching: MatchingConfig{
			ToleranceDays:      3,
			AmountTolerance:    1.0,
			MaxCandidates:      10,
			MinMatchScore:      30,
			AutoMatchThreshold: 90,
			Weights:            WeightsConfig{Amount: 50, Date: 30, Text: 20},
		},
		Events:  EventsConfig{BufferSize: 64},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML config file, expanding ${VAR} references from the
// environment. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv builds a configuration from environment variables on top of
// the defaults. Used when no config file is supplied.
func FromEnv() *Config {
	cfg := Default()
	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = splitAndTrim(origins)
	}

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvInt("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.Name = getEnv("DB_NAME", cfg.Database.Name)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Matching.ToleranceDays = getEnvInt("MATCH_TOLERANCE_DAYS", cfg.Matching.ToleranceDays)
	cfg.Matching.AmountTolerance = getEnvFloat("MATCH_AMOUNT_TOLERANCE", cfg.Matching.AmountTolerance)
	cfg.Matching.MaxCandidates = getEnvInt("MATCH_MAX_CANDIDATES", cfg.Matching.MaxCandidates)
	cfg.Matching.MinMatchScore = getEnvInt("MATCH_MIN_SCORE", cfg.Matching.MinMatchScore)
	cfg.Matching.AutoMatchThreshold = getEnvInt("MATCH_AUTO_THRESHOLD", cfg.Matching.AutoMatchThreshold)

	cfg.Events.BufferSize = getEnvInt("EVENT_BUFFER_SIZE", cfg.Events.BufferSize)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	return cfg
}

// LoadOrEnv loads the file when path is non-empty, otherwise falls back
// to the environment.
func LoadOrEnv(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	return FromEnv(), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
