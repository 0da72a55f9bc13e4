package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ErrMissingEnv is returned by Load when a required variable is unset.
var ErrMissingEnv = errors.New("missing required environment variables")

type Config struct {
	GitHub GitHubConfig
	Report ReportConfig
	Log    LogConfig
}

type GitHubConfig struct {
	Token        string
	Owner        string
	Repositories []string
	BaseURL      string
	UserAgent    string
}

type ReportConfig struct {
	OutputPath    string
	XLSXPath      string
	LookbackDays  int
	EnrichWorkers int
}

type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		GitHub: GitHubConfig{
			Token:        getEnv("GITHUB_TOKEN", ""),
			Owner:        getEnv("GITHUB_OWNER", ""),
			Repositories: splitList(getEnv("GITHUB_REPOS", "")),
			BaseURL:      getEnv("GITHUB_API_URL", "https://api.github.com/"),
			UserAgent:    getEnv("GITHUB_USER_AGENT", "prreport"),
		},
		Report: ReportConfig{
			OutputPath:    getEnv("OUTPUT_PATH", "merged_prs.csv"),
			XLSXPath:      getEnv("XLSX_OUTPUT_PATH", ""),
			LookbackDays:  getEnvAsInt("LOOKBACK_DAYS", 7),
			EnrichWorkers: getEnvAsInt("ENRICH_WORKERS", 1),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every required setting that is missing in one error
func (c *Config) Validate() error {
	var missing []string
	if c.GitHub.Token == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if c.GitHub.Owner == "" {
		missing = append(missing, "GITHUB_OWNER")
	}
	if len(c.GitHub.Repositories) == 0 {
		missing = append(missing, "GITHUB_REPOS")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return nil
}

// splitList splits a comma separated value, dropping blank entries
func splitList(value string) []string {
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets a positive integer environment variable or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
		log.Printf("Invalid value for %s, using default: %d", key, defaultValue)
	}
	return defaultValue
}
