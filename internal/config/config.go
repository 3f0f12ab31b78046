// Package config defines the application configuration and its viper-based
// loading. Defaults are registered centrally so every entry point (CLI, tests)
// sees the same baseline.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// LLM provider identifiers.
const (
	ProviderGemini = "gemini"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Audit   AuditConfig   `mapstructure:"audit" yaml:"audit"`
}

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig controls the chromedp browser controller.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ChromePath        string        `mapstructure:"chrome_path" yaml:"chrome_path"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
}

// LLMModelConfig configures one model endpoint.
type LLMModelConfig struct {
	Provider   string        `mapstructure:"provider" yaml:"provider"`
	Model      string        `mapstructure:"model" yaml:"model"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	APITimeout time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	// RateLimit caps requests per second towards the provider; zero disables
	// the limiter.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// AgentConfig configures the action layer and its extraction model.
type AgentConfig struct {
	// UseVision marks that planning prompts carry page screenshots.
	UseVision bool `mapstructure:"use_vision" yaml:"use_vision"`
	// MaxSteps bounds a single run; enforced by the surrounding control loop.
	MaxSteps int `mapstructure:"max_steps" yaml:"max_steps"`
	// Extractor is the secondary model used by extract_content.
	Extractor LLMModelConfig `mapstructure:"extractor" yaml:"extractor"`
}

// PostgresConfig holds the audit database connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	DBName   string `mapstructure:"dbname" yaml:"dbname"`
	SSLMode  string `mapstructure:"sslmode" yaml:"sslmode"`
}

// DSN renders the pgx connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// AuditConfig controls the persistent execution event audit trail.
type AuditConfig struct {
	Enabled  bool           `mapstructure:"enabled" yaml:"enabled"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webpilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 1100)

	// -- Agent --
	v.SetDefault("agent.use_vision", false)
	v.SetDefault("agent.max_steps", 50)
	v.SetDefault("agent.extractor.provider", ProviderGemini)
	v.SetDefault("agent.extractor.model", "gemini-2.5-flash")
	v.SetDefault("agent.extractor.api_timeout", "90s")
	v.SetDefault("agent.extractor.rate_limit", 1.0)

	// -- Audit --
	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.postgres.host", "localhost")
	v.SetDefault("audit.postgres.port", 5432)
	v.SetDefault("audit.postgres.user", "postgres")
	v.SetDefault("audit.postgres.password", "")
	v.SetDefault("audit.postgres.dbname", "webpilot_audit")
	v.SetDefault("audit.postgres.sslmode", "disable")
}

// NewDefaultConfig creates a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults, but fail loudly rather than limp on.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a loaded viper
// object, binding sensitive values from the environment.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("agent.extractor.api_key", "WEBPILOT_GEMINI_API_KEY")
	v.BindEnv("audit.postgres.password", "WEBPILOT_AUDIT_DB_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Agent.Extractor.APIKey == "" {
		cfg.Agent.Extractor.APIKey = os.Getenv("WEBPILOT_GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid logger format %q (want console or json)", c.Logger.Format)
	}
	if c.Agent.MaxSteps <= 0 {
		return fmt.Errorf("agent.max_steps must be positive, got %d", c.Agent.MaxSteps)
	}
	if c.Agent.Extractor.RateLimit < 0 {
		return fmt.Errorf("agent.extractor.rate_limit must not be negative")
	}
	if c.Audit.Enabled && c.Audit.Postgres.Host == "" {
		return fmt.Errorf("audit.postgres.host is required when audit is enabled")
	}
	return nil
}
