package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Logging      LoggingConfig      `yaml:"logging"`
	PortfolioAPI PortfolioAPIConfig `yaml:"portfolioAPI"`
	Session      SessionConfig      `yaml:"session"`
	Assets       AssetsConfig       `yaml:"assets"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
	Notifier     NotifierConfig     `yaml:"notifier"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string   `yaml:"port"`
	ReadTimeout  int      `yaml:"readTimeout"`
	WriteTimeout int      `yaml:"writeTimeout"`
	IdleTimeout  int      `yaml:"idleTimeout"`
	AllowOrigins []string `yaml:"allowOrigins"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Development bool   `yaml:"development"`
}

// PortfolioAPIConfig holds the configuration of the portfolio backend client.
type PortfolioAPIConfig struct {
	BaseURL              string `yaml:"baseURL" validate:"required,url"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	// TaskTimeoutMillis bounds how long an async query is polled.
	TaskTimeoutMillis int64   `yaml:"taskTimeoutMillis"`
	TaskPollPerSecond float64 `yaml:"taskPollPerSecond"`
	MaxConnsPerHost   int     `yaml:"maxConnsPerHost"`
}

// SessionConfig is the initial entitlement state of the session.
type SessionConfig struct {
	Premium       bool     `yaml:"premium"`
	ActiveModules []string `yaml:"activeModules"`
}

// AssetsConfig holds configuration of the asset metadata cache.
type AssetsConfig struct {
	CacheTTLMinutes        int `yaml:"cacheTTLMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// SchedulerConfig holds configuration of the periodic refresh.
type SchedulerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Spec    string `yaml:"spec"`
}

// NotifierConfig holds configuration of the user message queue.
type NotifierConfig struct {
	Capacity int `yaml:"capacity" validate:"gte=0"`
}

// RequestTimeout returns the per-request timeout of the portfolio client.
func (c PortfolioAPIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

// TaskTimeout returns how long async tasks are polled for.
func (c PortfolioAPIConfig) TaskTimeout() time.Duration {
	return time.Duration(c.TaskTimeoutMillis) * time.Millisecond
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		logrus.Errorf("Invalid configuration in %s: %v", path, err)
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
		logrus.Infof("Server.Port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"*"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.PortfolioAPI.BaseURL == "" {
		cfg.PortfolioAPI.BaseURL = "http://localhost:4242"
		logrus.Infof("PortfolioAPI.BaseURL not set, defaulting to %s", cfg.PortfolioAPI.BaseURL)
	}
	if cfg.PortfolioAPI.RequestTimeoutMillis == 0 {
		cfg.PortfolioAPI.RequestTimeoutMillis = 10000
		logrus.Infof("PortfolioAPI.RequestTimeoutMillis not set, defaulting to %d ms", cfg.PortfolioAPI.RequestTimeoutMillis)
	}
	if cfg.PortfolioAPI.TaskTimeoutMillis == 0 {
		cfg.PortfolioAPI.TaskTimeoutMillis = 120000
		logrus.Infof("PortfolioAPI.TaskTimeoutMillis not set, defaulting to %d ms", cfg.PortfolioAPI.TaskTimeoutMillis)
	}
	if cfg.PortfolioAPI.TaskPollPerSecond <= 0 {
		cfg.PortfolioAPI.TaskPollPerSecond = 2
		logrus.Infof("PortfolioAPI.TaskPollPerSecond not set, defaulting to %.1f", cfg.PortfolioAPI.TaskPollPerSecond)
	}
	if cfg.PortfolioAPI.MaxConnsPerHost == 0 {
		cfg.PortfolioAPI.MaxConnsPerHost = 16
	}

	if cfg.Assets.CacheTTLMinutes == 0 {
		cfg.Assets.CacheTTLMinutes = 60
		logrus.Infof("Assets.CacheTTLMinutes not set, defaulting to %d minutes", cfg.Assets.CacheTTLMinutes)
	}
	if cfg.Assets.CleanupIntervalMinutes == 0 {
		cfg.Assets.CleanupIntervalMinutes = 10
	}

	if cfg.Scheduler.Enabled && cfg.Scheduler.Spec == "" {
		cfg.Scheduler.Spec = "@every 10m"
		logrus.Infof("Scheduler.Spec not set, defaulting to %s", cfg.Scheduler.Spec)
	}

	if cfg.Notifier.Capacity == 0 {
		cfg.Notifier.Capacity = 100
	}
}
