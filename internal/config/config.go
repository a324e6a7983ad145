package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string        `env:"PORT" envDefault:"8080"`
	DatabaseType    string        `env:"DB_TYPE" envDefault:"sqlite"`
	DatabasePath    string        `env:"DB_PATH" envDefault:"./millionaire.db"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	MigrationsPath  string        `env:"MIGRATIONS_PATH" envDefault:"./migrations"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"24h"`
	JWTSecret       string        `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	GameTimeLimit   time.Duration `env:"GAME_TIME_LIMIT" envDefault:"35m"`

	// Requests per minute per client on /login and /register
	AuthRateLimit int `env:"AUTH_RATE_LIMIT" envDefault:"10"`

	// Game result emails; disabled when SESFromEmail is empty
	AWSRegion    string `env:"AWS_REGION" envDefault:"us-east-1"`
	SESFromEmail string `env:"SES_FROM_EMAIL"`
	SESFromName  string `env:"SES_FROM_NAME" envDefault:"Millionaire"`
	AppBaseURL   string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	Debug bool `env:"DEBUG" envDefault:"false"`
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.GameTimeLimit <= 0 {
		return nil, fmt.Errorf("GAME_TIME_LIMIT must be positive, got %s", cfg.GameTimeLimit)
	}
	if cfg.AuthRateLimit <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_LIMIT must be positive, got %d", cfg.AuthRateLimit)
	}
	return cfg, nil
}
