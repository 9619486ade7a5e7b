package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	App     AppConfig
	Storage StorageConfig
	SMTP    SMTPConfig
	Admin   AdminConfig
}

type ServerConfig struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	StaticDir   string   `env:"STATIC_DIR" envDefault:"./static"`
	ImagesDir   string   `env:"IMAGES_DIR" envDefault:"./images"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
}

type AppConfig struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
}

type StorageConfig struct {
	DatabasePath string        `env:"DATABASE_PATH" envDefault:"portfolio.db"`
	RedisURL     string        `env:"REDIS_URL"`
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"24h"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	Port     string `env:"SMTP_PORT" envDefault:"587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	To       string `env:"CONTACT_TO_EMAIL"`
}

type AdminConfig struct {
	Token            string        `env:"ADMIN_TOKEN"`
	HashSalt         string        `env:"HASH_SALT"`
	VisitorRetention time.Duration `env:"VISITOR_RETENTION" envDefault:"8760h"`
	CleanupSchedule  string        `env:"CLEANUP_SCHEDULE" envDefault:"@daily"`
	EvictionSchedule string        `env:"SESSION_EVICTION_SCHEDULE" envDefault:"@every 15m"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("PORT is required")
	}
	if c.Storage.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if c.Admin.VisitorRetention <= 0 {
		return errors.New("VISITOR_RETENTION must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// MailerReady reports whether contact messages can be relayed.
func (c *Config) MailerReady() bool {
	return c.SMTP.User != "" && c.SMTP.Password != ""
}
