package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime settings, parsed from the environment.
type Config struct {
	DatabaseURL     string `env:"DATABASE_URL,required"`
	Port            string `env:"APP_PORT" envDefault:"8080"`
	JWTSecret       string `env:"JWT_SECRET,required"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON         bool   `env:"LOG_JSON" envDefault:"false"`
	RenewalSchedule string `env:"RENEWAL_SCHEDULE" envDefault:"30 0 * * *"`
	PortalBaseURL   string `env:"PORTAL_BASE_URL" envDefault:"http://localhost:5173/portal"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is fine in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
