package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	botToken              string
	dBHost                string
	dBUsername            string
	dBPassword            string
	sentryDSN             string
	port                  string
	pointsPerMessage      int64
	pointsPerSticker      int64
	maxLeaderboardEntries int
	env                   environment
}

func (c *Config) BotToken() string {
	return c.botToken
}

func (c *Config) DBHost() string {
	return c.dBHost
}

func (c *Config) DBUsername() string {
	return c.dBUsername
}

func (c *Config) DBPassword() string {
	return c.dBPassword
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) PointsPerMessage() int64 {
	return c.pointsPerMessage
}

func (c *Config) PointsPerSticker() int64 {
	return c.pointsPerSticker
}

func (c *Config) MaxLeaderboardEntries() int {
	return c.maxLeaderboardEntries
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf(
		"Config{env: %s, pointsPerMessage: %d, pointsPerSticker: %d, maxLeaderboardEntries: %d, ...}",
		string(c.env), c.pointsPerMessage, c.pointsPerSticker, c.maxLeaderboardEntries,
	)
}

func positiveIntFromEnv(key string, fallback int64) (int64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s (%s)", ErrInvalidValue, key, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive (%d)", ErrInvalidValue, key, value)
	}
	return value, nil
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("GROUPTRACK_ENVIRONMENT")
	if !ok {
		return missingKey("GROUPTRACK_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: GROUPTRACK_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	dbHost := os.Getenv("DB_HOST")
	dbUsername := os.Getenv("DB_USERNAME")
	dbPassword := os.Getenv("DB_PASSWORD")
	sentryDSN := os.Getenv("SENTRY_DSN")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if env == production || env == staging {
		if botToken == "" {
			return missingKey("TELEGRAM_BOT_TOKEN")
		}
		if dbHost == "" {
			return missingKey("DB_HOST")
		}
		if dbUsername == "" {
			return missingKey("DB_USERNAME")
		}
		if dbPassword == "" {
			return missingKey("DB_PASSWORD")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	pointsPerMessage, err := positiveIntFromEnv("POINTS_PER_MESSAGE", 1)
	if err != nil {
		return Config{}, err
	}
	pointsPerSticker, err := positiveIntFromEnv("POINTS_PER_STICKER", 1)
	if err != nil {
		return Config{}, err
	}
	maxLeaderboardEntries, err := positiveIntFromEnv("MAX_LEADERBOARD_ENTRIES", 10)
	if err != nil {
		return Config{}, err
	}

	return Config{
		botToken:              botToken,
		dBHost:                dbHost,
		dBUsername:            dbUsername,
		dBPassword:            dbPassword,
		sentryDSN:             sentryDSN,
		port:                  port,
		pointsPerMessage:      pointsPerMessage,
		pointsPerSticker:      pointsPerSticker,
		maxLeaderboardEntries: int(maxLeaderboardEntries),
		env:                   env,
	}, nil
}
