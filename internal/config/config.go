package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingSecret = errors.New("config: ACCESS_TOKEN_SECRET is required")

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string

	AccessTokenSecret string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseDSN string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	MailDispatchTimeout time.Duration
	ShutdownTimeout     time.Duration
}

// Load reads the process environment. Values from a .env file in the working
// directory fill in keys the environment does not already set.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		ServiceName: get("SERVICE_NAME", "courseshop"),
		Env:         get("ENV", "dev"),
		HTTPAddr:    get("HTTP_ADDR", ":8080"),

		AccessTokenSecret: getenv("ACCESS_TOKEN_SECRET"),

		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),

		DatabaseDSN: getenv("DATABASE_DSN"),

		SMTPHost:     getenv("SMTP_HOST"),
		SMTPUser:     getenv("SMTP_USER"),
		SMTPPassword: getenv("SMTP_PASSWORD"),
		SMTPFrom:     getenv("SMTP_FROM"),
	}
	if cfg.AccessTokenSecret == "" {
		return Config{}, ErrMissingSecret
	}

	var err error
	if cfg.RedisDB, err = atoi("REDIS_DB", get("REDIS_DB", "0")); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = atoi("SMTP_PORT", get("SMTP_PORT", "587")); err != nil {
		return Config{}, err
	}
	if cfg.MailDispatchTimeout, err = duration("MAIL_DISPATCH_TIMEOUT", get("MAIL_DISPATCH_TIMEOUT", "10s")); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = duration("SHUTDOWN_TIMEOUT", get("SHUTDOWN_TIMEOUT", "10s")); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func atoi(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func duration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive", key)
	}
	return d, nil
}
