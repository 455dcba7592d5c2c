package initializers

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Env      string
	Port     string
	DBURL    string
	Secret   string
	TokenTTL time.Duration
	LogLevel string

	ResendAPIKey    string
	ResendFromEmail string

	FirebaseServiceAccountPath string

	AMQPURL        string
	EventsExchange string

	RateLimitRPS   float64
	RateLimitBurst int

	RunMigrations bool
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadEnv reads a .env file when one is present. Missing files are not an
// error; deployed environments set variables directly.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using process environment")
	}
}

func LoadConfig() (Config, error) {
	cfg := Config{
		Env:                        getEnv("ENV", "development"),
		Port:                       getEnv("PORT", "8080"),
		DBURL:                      os.Getenv("DB_URL"),
		Secret:                     os.Getenv("SECRET"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		ResendAPIKey:               os.Getenv("RESEND_API_KEY"),
		ResendFromEmail:            getEnv("RESEND_FROM_EMAIL", "Salt & Light <noreply@saltandlight.app>"),
		FirebaseServiceAccountPath: os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"),
		AMQPURL:                    os.Getenv("AMQP_URL"),
		EventsExchange:             getEnv("EVENTS_EXCHANGE", "saltandlight.events"),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.Secret == "" {
		return Config{}, fmt.Errorf("SECRET is required")
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("TOKEN_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.RateLimitRPS, err = strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64); err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "10")); err != nil {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	if cfg.RunMigrations, err = strconv.ParseBool(getEnv("RUN_MIGRATIONS", "false")); err != nil {
		return Config{}, fmt.Errorf("invalid RUN_MIGRATIONS: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
