package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the service reads from the environment or config file.
type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	Database DatabaseConfig
	Auth     AuthConfig
	Upload   UploadConfig
	RabbitMQ RabbitMQConfig
}

type DatabaseConfig struct {
	Driver string // postgres or sqlite
	DSN    string
}

type AuthConfig struct {
	JWTSecret string
	Header    string
	TokenTTL  time.Duration
}

type UploadConfig struct {
	Dir              string
	MaxBytes         int64
	KeepOriginalName bool
}

// RabbitMQConfig is disabled when URL is empty.
type RabbitMQConfig struct {
	URL   string
	Queue string
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// SetDefaults registers the default value of every known key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=storefront port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("AUTH_HEADER", "x-auth-token")
	v.SetDefault("TOKEN_TTL", 24*time.Hour)
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", int64(5<<20))
	v.SetDefault("UPLOAD_KEEP_ORIGINAL_NAME", false)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_QUEUE", "product_events")
}

// Load reads an optional config.yaml, then environment variables, into a Config.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/storefront")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		AppEnv:   v.GetString("APP_ENV"),
		AppPort:  v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),
		Database: DatabaseConfig{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			Header:    v.GetString("AUTH_HEADER"),
			TokenTTL:  v.GetDuration("TOKEN_TTL"),
		},
		Upload: UploadConfig{
			Dir:              v.GetString("UPLOAD_DIR"),
			MaxBytes:         v.GetInt64("UPLOAD_MAX_BYTES"),
			KeepOriginalName: v.GetBool("UPLOAD_KEEP_ORIGINAL_NAME"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:   v.GetString("RABBITMQ_URL"),
			Queue: v.GetString("RABBITMQ_QUEUE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.Header == "" {
		return errors.New("AUTH_HEADER must not be empty")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	return nil
}
