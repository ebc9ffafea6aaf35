// Package config provides configuration management for the application.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"property-valuation-engine/internal/models"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration values for the application.
type Config struct {
	// Store
	StoreDriver string
	DatabaseURL string
	DBHost      string
	DBPort      int
	DBName      string
	DBUser      string
	DBPassword  string
	SQLitePath  string

	// AWS
	AWSRegion      string
	ReportsBucket  string
	SESSenderEmail string

	// HTTP
	Port           string
	RateLimitRPS   int
	RateLimitBurst int

	// Search
	Search SearchConfig

	// Application
	Stage    string
	LogLevel string
}

// SearchConfig tunes the comparable search and valuation selection.
type SearchConfig struct {
	MinComparables  int                      `mapstructure:"min_comparables"`
	SelectionSize   int                      `mapstructure:"selection_size"`
	QueryTimeout    time.Duration            `mapstructure:"query_timeout"`
	ToleranceLadder []models.ToleranceParams `mapstructure:"tolerance_ladder"`
}

// DefaultSearchConfig returns the standard search configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MinComparables:  5,
		SelectionSize:   5,
		QueryTimeout:    10 * time.Second,
		ToleranceLadder: models.DefaultToleranceLadder(),
	}
}

// Validate checks the search configuration for unusable values.
func (s SearchConfig) Validate() error {
	if len(s.ToleranceLadder) == 0 {
		return models.ErrEmptyToleranceLadder
	}
	for _, params := range s.ToleranceLadder {
		if err := params.Validate(); err != nil {
			return err
		}
	}
	if s.MinComparables < 1 || s.SelectionSize < 1 {
		return models.ErrInvalidMinimum
	}
	return nil
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// Store
		StoreDriver: getEnv("STORE_DRIVER", DriverPostgres),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnvInt("DB_PORT", 5432),
		DBName:      getEnv("DB_NAME", "hcad_db"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "properties.db"),

		// AWS
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		ReportsBucket:  getEnv("REPORTS_BUCKET", ""),
		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),

		// HTTP
		Port:           getEnv("PORT", "8001"),
		RateLimitRPS:   getEnvInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		// Application
		Stage:    getEnv("STAGE", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	search, err := LoadSearchConfig(getEnv("VALUATION_CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}
	cfg.Search = search

	return cfg, nil
}

// LoadSearchConfig reads the search section from a YAML file. An empty path
// looks for valuation.yaml in the working directory; a missing file yields
// the defaults.
func LoadSearchConfig(path string) (SearchConfig, error) {
	defaults := DefaultSearchConfig()

	v := viper.New()
	v.SetDefault("search.min_comparables", defaults.MinComparables)
	v.SetDefault("search.selection_size", defaults.SelectionSize)
	v.SetDefault("search.query_timeout", defaults.QueryTimeout)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("valuation")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return SearchConfig{}, err
		}
	}

	// Unmarshal merges defaults into a partial file; UnmarshalKey does not.
	var file struct {
		Search SearchConfig `mapstructure:"search"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return SearchConfig{}, err
	}
	search := file.Search
	if len(search.ToleranceLadder) == 0 {
		search.ToleranceLadder = defaults.ToleranceLadder
	}

	if err := search.Validate(); err != nil {
		return SearchConfig{}, err
	}
	return search, nil
}

// PostgresURL returns the PostgreSQL connection string. DATABASE_URL wins
// over the individual DB_* settings.
func (c *Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	sslMode := "require"
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// ReportsEnabled reports whether a report bucket is configured.
func (c *Config) ReportsEnabled() bool {
	return c.ReportsBucket != ""
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
