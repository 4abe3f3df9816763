package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/heritage.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// RedisURL is optional; an empty value disables the leaderboard cache.
	RedisURL       string        `env:"REDIS_URL"`
	LeaderboardTTL time.Duration `env:"LEADERBOARD_TTL" envDefault:"30s"`

	JWTSecret     string `env:"JWT_SECRET,required"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@heritagequest.id"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"changeme"`

	SeedDemo   bool `env:"SEED_DEMO" envDefault:"true"`
	TxRetryMax uint `env:"TX_RETRY_MAX" envDefault:"5"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
