package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. YOMU_SERVER_PORT.
const EnvPrefix = "YOMU"

// ErrInvalidConfig is returned when the loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// NewViper returns a viper instance with defaults registered and environment
// variables bound. Callers may bind command-line flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", "yomu.db")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	for _, key := range []string{
		"default_difficulty", "min_difficulty", "max_difficulty", "max_interval",
		"forgot_penalty", "hard_penalty", "easy_bonus", "hard_growth", "easy_growth",
		"forgot_interval", "hard_min_interval", "easy_min_interval",
	} {
		v.SetDefault("srs."+key, 0)
	}

	v.SetDefault("review.session_ttl", 2*time.Hour)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.base_delay", time.Second)
	v.SetDefault("llm.max_delay", 10*time.Second)

	v.SetDefault("dictionary.cache_ttl", 24*time.Hour)

	v.SetDefault("tokenizer.url", "")
	v.SetDefault("tokenizer.timeout", 10*time.Second)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
}

// Load reads configuration from an optional config file and the environment.
// Environment variables take precedence over values from config files.
// If configFile is empty, config.yaml in the working directory is used when present.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = NewViper()
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the rules that span several fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("%w: database.url is required for the postgres driver", ErrInvalidConfig)
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for the sqlite driver", ErrInvalidConfig)
		}
	}

	return nil
}
