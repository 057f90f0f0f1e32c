package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Addr        string
	DBPath      string
	OpenAIKey   string
	OpenAIModel string
	JWTSecret   string
	Locale      *time.Location
}

// Load reads configuration from the environment, with an optional .env
// file for local development.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine; real deployments set the
		// environment directly.
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
		}
	}

	tzName := getEnvOrDefault("TIMEZONE", "Asia/Seoul")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	cfg := &Config{
		Addr:        getEnvOrDefault("PLANNIE_ADDR", ":8080"),
		DBPath:      getEnvOrDefault("PLANNIE_DB", "./data/plannie.db"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Locale:      loc,
	}
	return cfg, nil
}

// RequireServer checks the settings only the server needs, so offline CLI
// commands can run without them.
func (c *Config) RequireServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
