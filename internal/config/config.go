package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds application configuration read from the environment.
type Config struct {
	Port          string `env:"PORT" env-default:"8080"`
	BaseURL       string `env:"BASE_URL" env-default:"http://localhost:8080"`
	LogLevel      string `env:"LOG_LEVEL" env-default:"info"`
	DatabaseURL   string `env:"DATABASE_URL"`
	RedisAddr     string `env:"REDIS_ADDR"`
	SessionSecret string `env:"SESSION_SECRET" env-default:"dev-secret-change-me"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return cfg, nil
}
