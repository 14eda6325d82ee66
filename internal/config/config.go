package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultModel         = "gpt-3.5-turbo"
	defaultCommandPrefix = "!"
	defaultLogLevel      = "info"
	defaultEnvironment   = "production"
)

// ErrMissingAppToken is returned by ValidateBot when Socket Mode cannot start.
var ErrMissingAppToken = errors.New("SLACK_APP_TOKEN is required to run the bot")

type Config struct {
	SlackToken    string
	SlackAppToken string
	OpenAIToken   string
	OpenAIModel   string
	CommandPrefix string
	LogLevel      string
	Environment   string

	// Optional PostgreSQL store
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	// Optional email delivery
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	EmailFrom    string
	EmailTo      []string
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		SlackToken:    os.Getenv("SLACK_BOT_TOKEN"),
		SlackAppToken: os.Getenv("SLACK_APP_TOKEN"),
		OpenAIToken:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", defaultModel),
		CommandPrefix: getEnv("COMMAND_PREFIX", defaultCommandPrefix),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		Environment:   getEnv("ENVIRONMENT", defaultEnvironment),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        os.Getenv("DB_PORT"),
		DBName:        os.Getenv("DB_NAME"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      os.Getenv("SMTP_PORT"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		EmailFrom:     os.Getenv("EMAIL_FROM"),
		EmailTo:       splitList(os.Getenv("EMAIL_TO")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	required := []struct{ key, value string }{
		{"SLACK_BOT_TOKEN", c.SlackToken},
		{"OPENAI_API_KEY", c.OpenAIToken},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %s", c.LogLevel)
	}

	// The store is all-or-nothing.
	db := map[string]string{
		"DB_HOST":     c.DBHost,
		"DB_PORT":     c.DBPort,
		"DB_NAME":     c.DBName,
		"DB_USER":     c.DBUser,
		"DB_PASSWORD": c.DBPassword,
	}
	set := 0
	for _, v := range db {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != len(db) {
		for k, v := range db {
			if v == "" {
				return fmt.Errorf("%s is required when the database is configured", k)
			}
		}
	}
	return nil
}

// ValidateBot checks the settings only the Socket Mode bot needs.
func (c *Config) ValidateBot() error {
	if c.SlackAppToken == "" {
		return ErrMissingAppToken
	}
	return nil
}

// DatabaseEnabled reports whether the PostgreSQL store is configured.
func (c *Config) DatabaseEnabled() bool {
	return c.DBHost != ""
}

// EmailEnabled reports whether summaries can be mailed.
func (c *Config) EmailEnabled() bool {
	return len(c.EmailTo) > 0 && c.SMTPHost != "" && c.SMTPPort != ""
}

// DSN returns the lib/pq connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
