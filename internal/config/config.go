package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name          string `envconfig:"APP_NAME" default:"StoryLedger"`
		Port          int    `envconfig:"PORT" default:"8080"`
		LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
		InvoicePrefix string `envconfig:"INVOICE_PREFIX" default:"ST"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"storyledger"`
	}

	Migrations struct {
		Path string `envconfig:"MIGRATIONS_PATH" default:"db/migrations"`
	}

	Auth struct {
		JWTSecret      string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
		SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
		LoginPerMinute int           `envconfig:"LOGIN_PER_MINUTE" default:"10"`
	}

	// Bootstrap is the hardcoded super-admin that exists outside the user
	// registry. It cannot be deleted or enumerated.
	Bootstrap struct {
		Name     string `envconfig:"BOOTSTRAP_ADMIN_NAME" default:"System Administrator"`
		Email    string `envconfig:"BOOTSTRAP_ADMIN_EMAIL" default:"admin@rayan2media.com"`
		Password string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD" default:"546884"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
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
