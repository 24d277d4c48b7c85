// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir     string // base directory for the cache database and default inputs, always absolute
	SourceDir   string // extracted regulator CSVs
	TickersFile string
	MarketFile  string

	S3 S3Config

	ITRYears []int // quarterly filings
	DFPYears []int // annual filings

	ReloadSchedule string
	LoadOnStart    bool
	ScreenerTTL    time.Duration

	LogLevel string
	Port     int
	DevMode  bool
}

// S3Config points at an optional bucket holding the regulator CSVs.
// An empty bucket means the local source directory is used.
type S3Config struct {
	Bucket   string
	Prefix   string
	Endpoint string
	Region   string

	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether the S3 source should be used.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from the environment and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("FUNDAMENTALS_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	itrYears, err := ParseYears(getEnv("FUNDAMENTALS_ITR_YEARS", "2010-2025"))
	if err != nil {
		return nil, fmt.Errorf("FUNDAMENTALS_ITR_YEARS: %w", err)
	}
	dfpYears, err := ParseYears(getEnv("FUNDAMENTALS_DFP_YEARS", "2010-2024"))
	if err != nil {
		return nil, fmt.Errorf("FUNDAMENTALS_DFP_YEARS: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		SourceDir:   getEnv("FUNDAMENTALS_SOURCE_DIR", filepath.Join(absDataDir, "raw")),
		TickersFile: getEnv("FUNDAMENTALS_TICKERS_FILE", filepath.Join(absDataDir, "tickers.csv")),
		MarketFile:  getEnv("FUNDAMENTALS_MARKET_FILE", filepath.Join(absDataDir, "market.json")),
		S3: S3Config{
			Bucket:   getEnv("FUNDAMENTALS_S3_BUCKET", ""),
			Prefix:   getEnv("FUNDAMENTALS_S3_PREFIX", ""),
			Endpoint: getEnv("FUNDAMENTALS_S3_ENDPOINT", ""),
			Region:   getEnv("FUNDAMENTALS_S3_REGION", "us-east-1"),

			AccessKeyID:     getEnv("FUNDAMENTALS_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("FUNDAMENTALS_S3_SECRET_ACCESS_KEY", ""),
		},
		ITRYears:       itrYears,
		DFPYears:       dfpYears,
		ReloadSchedule: getEnv("FUNDAMENTALS_RELOAD_SCHEDULE", "0 0 6 * * *"),
		LoadOnStart:    getEnvAsBool("FUNDAMENTALS_LOAD_ON_START", true),
		ScreenerTTL:    getEnvAsDuration("FUNDAMENTALS_SCREENER_TTL", 24*time.Hour),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnvAsInt("GO_PORT", 8001),
		DevMode:        getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if len(c.ITRYears) == 0 && len(c.DFPYears) == 0 {
		return fmt.Errorf("no filing years configured")
	}
	if c.ScreenerTTL <= 0 {
		return fmt.Errorf("screener TTL must be positive, got %s", c.ScreenerTTL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// ParseYears accepts a comma-separated list of years and inclusive ranges,
// e.g. "2010-2015,2018". An empty string yields no years.
func ParseYears(s string) ([]int, error) {
	var years []int
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to := part, part
		if i := strings.Index(part, "-"); i > 0 {
			from, to = part[:i], part[i+1:]
		}
		start, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", from)
		}
		end, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", to)
		}
		if end < start {
			return nil, fmt.Errorf("invalid year range %q", part)
		}
		for y := start; y <= end; y++ {
			if !seen[y] {
				seen[y] = true
				years = append(years, y)
			}
		}
	}
	return years, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
