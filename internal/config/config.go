package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
	"veggie-trivia-service/internal/domain"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Questions   QuestionsConfig   `yaml:"questions"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	Session     SessionConfig     `yaml:"session"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

type PostgresConfig struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type QuestionsConfig struct {
	// Source is "file" (default) or "postgres".
	Source string `yaml:"source" env:"QUESTIONS_SOURCE"`
	Path   string `yaml:"path" env:"QUESTIONS_PATH"`
	Min    int    `yaml:"min" env:"QUESTIONS_MIN"`
}

type LeaderboardConfig struct {
	// Backend is one of memory, file, redis, postgres, sqlite.
	Backend  string `yaml:"backend" env:"LEADERBOARD_BACKEND"`
	Path     string `yaml:"path" env:"LEADERBOARD_PATH"`
	PageSize int    `yaml:"page_size" env:"LEADERBOARD_PAGE_SIZE"`
}

type SessionConfig struct {
	// Store is "memory" (default) or "redis".
	Store string `yaml:"store" env:"SESSION_STORE"`
	TTL   string `yaml:"ttl" env:"SESSION_TTL"`
}

// Load reads YAML config from path and then applies environment overrides.
// A missing file is not an error; defaults and the environment still apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Questions.Source == "" {
		c.Questions.Source = "file"
	}
	if c.Questions.Path == "" {
		c.Questions.Path = "QA.txt"
	}
	if c.Questions.Min < domain.MinPoolSize {
		c.Questions.Min = domain.MinPoolSize
	}
	if c.Leaderboard.Backend == "" {
		c.Leaderboard.Backend = "file"
	}
	if c.Leaderboard.Path == "" {
		c.Leaderboard.Path = "leaderboard.json"
		if c.Leaderboard.Backend == "sqlite" {
			c.Leaderboard.Path = "leaderboard.db"
		}
	}
	if c.Leaderboard.PageSize <= 0 {
		c.Leaderboard.PageSize = 10
	}
	if c.Session.Store == "" {
		c.Session.Store = "memory"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
