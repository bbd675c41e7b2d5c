// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Catalog       CatalogConfig      `mapstructure:"catalog"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Matching      MatchingConfig     `mapstructure:"matching"`
	Feedback      FeedbackConfig     `mapstructure:"feedback"`
	Scheduler     SchedulerConfig    `mapstructure:"scheduler"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// CatalogConfig holds settings for the external listing catalog API.
type CatalogConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	Timeout        int    `mapstructure:"timeout"`          // milliseconds
	PerPage        int    `mapstructure:"per_page"`         // results per search page
	MaxPages       int    `mapstructure:"max_pages"`        // pages fetched per search
	DetailLimit    int    `mapstructure:"detail_limit"`     // candidates enriched with full descriptions
	DetailDelay    int    `mapstructure:"detail_delay"`     // milliseconds between detail fetches
	SearchPeriod   int    `mapstructure:"search_period"`    // listing age cutoff in days
	MaxQueryTerms  int    `mapstructure:"max_query_terms"`  // cap on terms in a search query
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MatchingConfig holds tunables for spec building and scoring.
type MatchingConfig struct {
	SalaryRelaxation   float64 `mapstructure:"salary_relaxation"`    // factor applied to desired salary floor
	MaxRelatedTitles   int     `mapstructure:"max_related_titles"`   // related titles added per profile role
	ProfileBlockSize   int     `mapstructure:"profile_block_size"`   // recommendations in the profile block
	StrengthBlockSize  int     `mapstructure:"strength_block_size"`  // recommendations in the strengths block
	FreshnessWindow    int     `mapstructure:"freshness_window"`     // minutes a stored run stays fresh
	MinRelevanceScore  float64 `mapstructure:"min_relevance_score"`  // floor below which candidates are dropped
	AssessmentDisabled bool    `mapstructure:"assessment_disabled"`  // skips the strengths block entirely
}

// FeedbackConfig holds settings for preference learning.
type FeedbackConfig struct {
	LookbackDays int `mapstructure:"lookback_days"`
	MaxPositive  int `mapstructure:"max_positive"` // liked keywords kept
	MaxNegative  int `mapstructure:"max_negative"` // disliked keywords kept
}

// SchedulerConfig holds cron expressions for background jobs.
type SchedulerConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	RefreshSpec   string `mapstructure:"refresh_spec"`   // cron spec for recommendation refresh
	CleanupSpec   string `mapstructure:"cleanup_spec"`   // cron spec for stale row cleanup
	RetentionDays int    `mapstructure:"retention_days"` // recommendation retention
	Concurrency   int    `mapstructure:"concurrency"`    // parallel user refreshes
}

// NotificationConfig holds settings for digest delivery.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	Events struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"events"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig holds settings for the metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}
