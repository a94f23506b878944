package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Carteira"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"carteira"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	// Auth is optional: an empty secret leaves the API open for local use.
	Auth struct {
		Secret string `envconfig:"AUTH_SECRET"`
	}

	Quote struct {
		BaseURL string        `envconfig:"QUOTE_BASE_URL" default:"https://brapi.dev"`
		Token   string        `envconfig:"QUOTE_TOKEN"`
		Timeout time.Duration `envconfig:"QUOTE_TIMEOUT" default:"5s"`
	}

	// Portfolio is the default portfolio the TUI operates on.
	Portfolio struct {
		ID string `envconfig:"PORTFOLIO_ID"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
