package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	SRS        SRSConfig        `mapstructure:"srs"`
	Review     ReviewConfig     `mapstructure:"review" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Dictionary DictionaryConfig `mapstructure:"dictionary" validate:"required"`
	Tokenizer  TokenizerConfig  `mapstructure:"tokenizer"`
	Task       TaskConfig       `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port               int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel           string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig contains all database-related configuration settings.
// URL is used by the postgres driver, Path by the sqlite driver.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL             string        `mapstructure:"url"`
	Path            string        `mapstructure:"path"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// SRSConfig overrides scheduler parameters. Zero values keep the defaults.
type SRSConfig struct {
	DefaultDifficulty float64 `mapstructure:"default_difficulty" validate:"gte=0"`
	MinDifficulty     float64 `mapstructure:"min_difficulty" validate:"gte=0"`
	MaxDifficulty     float64 `mapstructure:"max_difficulty" validate:"gte=0"`
	MaxInterval       int     `mapstructure:"max_interval" validate:"gte=0"`
	ForgotPenalty     float64 `mapstructure:"forgot_penalty" validate:"gte=0"`
	HardPenalty       float64 `mapstructure:"hard_penalty" validate:"gte=0"`
	EasyBonus         float64 `mapstructure:"easy_bonus" validate:"gte=0"`
	HardGrowth        float64 `mapstructure:"hard_growth" validate:"gte=0"`
	EasyGrowth        float64 `mapstructure:"easy_growth" validate:"gte=0"`
	ForgotInterval    int     `mapstructure:"forgot_interval" validate:"gte=0"`
	HardMinInterval   int     `mapstructure:"hard_min_interval" validate:"gte=0"`
	EasyMinInterval   int     `mapstructure:"easy_min_interval" validate:"gte=0"`
}

// ReviewConfig contains settings for server-held review sessions.
type ReviewConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl" validate:"gt=0"`
}

// LLMConfig contains all LLM integration related settings.
// Leaving GeminiAPIKey empty disables the Gemini dictionary.
type LLMConfig struct {
	GeminiAPIKey string        `mapstructure:"gemini_api_key"`
	ModelName    string        `mapstructure:"model_name"`
	MaxRetries   int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	BaseDelay    time.Duration `mapstructure:"base_delay" validate:"gte=0"`
	MaxDelay     time.Duration `mapstructure:"max_delay" validate:"gte=0"`
}

// DictionaryConfig controls definition caching.
type DictionaryConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
}

// TokenizerConfig points at the external morphological analyzer.
// Leaving URL empty disables the /analyze endpoint.
type TokenizerConfig struct {
	URL     string        `mapstructure:"url" validate:"omitempty,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// TaskConfig contains background worker settings.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int `mapstructure:"queue_size" validate:"gte=1"`
}
