package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Content ContentConfig
	Store   StoreConfig
	Admin   AdminConfig
	App     AppConfig
}

type ServerConfig struct {
	Port        string        `env:"PORT" envDefault:"8080"`
	CORSOrigins []string      `env:"CORS_ORIGINS" envSeparator:","`
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	// SessionMax caps live view sessions. 0 means no cap.
	SessionMax int `env:"SESSION_MAX" envDefault:"1000"`
}

type ContentConfig struct {
	// Path to a YAML content file. Empty uses the built-in content.
	Path string `env:"CONTENT_PATH"`
}

type StoreConfig struct {
	Path string `env:"DB_PATH" envDefault:"portfolio.db"`
}

type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME" envDefault:"admin"`
	Password string `env:"ADMIN_PASSWORD"`
}

type AppConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
}

// Load reads .env when present and then parses the process environment.
func Load() (*Config, error) {
	// .env is optional; production sets real environment variables
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Server.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	if c.Server.SessionMax < 0 {
		return fmt.Errorf("SESSION_MAX must not be negative")
	}

	if c.IsProduction() && c.Admin.Password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required in production")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Server.Port
}
