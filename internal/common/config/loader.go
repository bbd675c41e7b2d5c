// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like CATALOG_BASE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Merge environment-specific overrides, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile looks for a .env in the usual run locations.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.Catalog.BaseURL == "" {
		if val := os.Getenv("CATALOG_BASE_URL"); val != "" {
			cfg.Catalog.BaseURL = val
		}
	}
	if cfg.Catalog.UserAgent == "" {
		if val := os.Getenv("CATALOG_USER_AGENT"); val != "" {
			cfg.Catalog.UserAgent = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
	if cfg.Database.Redis.Password == "" {
		if val := os.Getenv("REDIS_PASSWORD"); val != "" {
			cfg.Database.Redis.Password = val
		}
	}

	if cfg.Notifications.Email.FromEmail == "" {
		if val := os.Getenv("NOTIFICATIONS_FROM_EMAIL"); val != "" {
			cfg.Notifications.Email.FromEmail = val
		}
	}
	if cfg.Notifications.Events.TopicARN == "" {
		if val := os.Getenv("NOTIFICATIONS_TOPIC_ARN"); val != "" {
			cfg.Notifications.Events.TopicARN = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	// Catalog defaults
	if cfg.Catalog.Timeout == 0 {
		cfg.Catalog.Timeout = 30000
	}
	if cfg.Catalog.PerPage == 0 {
		cfg.Catalog.PerPage = 50
	}
	if cfg.Catalog.MaxPages == 0 {
		cfg.Catalog.MaxPages = 2
	}
	if cfg.Catalog.DetailLimit == 0 {
		cfg.Catalog.DetailLimit = 10
	}
	if cfg.Catalog.DetailDelay == 0 {
		cfg.Catalog.DetailDelay = 100
	}
	if cfg.Catalog.SearchPeriod == 0 {
		cfg.Catalog.SearchPeriod = 30
	}
	if cfg.Catalog.MaxQueryTerms == 0 {
		cfg.Catalog.MaxQueryTerms = 15
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	// Matching defaults
	if cfg.Matching.SalaryRelaxation == 0 {
		cfg.Matching.SalaryRelaxation = 0.7
	}
	if cfg.Matching.MaxRelatedTitles == 0 {
		cfg.Matching.MaxRelatedTitles = 3
	}
	if cfg.Matching.ProfileBlockSize == 0 {
		cfg.Matching.ProfileBlockSize = 10
	}
	if cfg.Matching.StrengthBlockSize == 0 {
		cfg.Matching.StrengthBlockSize = 10
	}
	if cfg.Matching.FreshnessWindow == 0 {
		cfg.Matching.FreshnessWindow = 360 // 6 hours
	}

	// Feedback defaults
	if cfg.Feedback.LookbackDays == 0 {
		cfg.Feedback.LookbackDays = 30
	}
	if cfg.Feedback.MaxPositive == 0 {
		cfg.Feedback.MaxPositive = 20
	}
	if cfg.Feedback.MaxNegative == 0 {
		cfg.Feedback.MaxNegative = 10
	}

	// Scheduler defaults
	if cfg.Scheduler.RefreshSpec == "" {
		cfg.Scheduler.RefreshSpec = "0 * * * *" // hourly
	}
	if cfg.Scheduler.CleanupSpec == "" {
		cfg.Scheduler.CleanupSpec = "30 3 * * *" // daily, off-peak
	}
	if cfg.Scheduler.RetentionDays == 0 {
		cfg.Scheduler.RetentionDays = 30
	}
	if cfg.Scheduler.Concurrency == 0 {
		cfg.Scheduler.Concurrency = 4
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	// Metrics defaults
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9090"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog.base_url is required")
	}

	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}

	if cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Matching.SalaryRelaxation <= 0 || cfg.Matching.SalaryRelaxation > 1 {
		return fmt.Errorf("matching.salary_relaxation must be in (0, 1]")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
