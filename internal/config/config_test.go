package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "webpilot", cfg.Logger.ServiceName)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 1280, cfg.Browser.WindowWidth)
	assert.Equal(t, 1100, cfg.Browser.WindowHeight)

	assert.Equal(t, 50, cfg.Agent.MaxSteps)
	assert.Equal(t, ProviderGemini, cfg.Agent.Extractor.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.Agent.Extractor.Model)
	assert.Equal(t, 90*time.Second, cfg.Agent.Extractor.APITimeout)
	assert.Equal(t, 1.0, cfg.Agent.Extractor.RateLimit)

	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "localhost", cfg.Audit.Postgres.Host)

	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("defaults pass validation", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 50, cfg.Agent.MaxSteps)
	})

	t.Run("api key bound from environment", func(t *testing.T) {
		t.Setenv("WEBPILOT_GEMINI_API_KEY", "test-key-123")
		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "test-key-123", cfg.Agent.Extractor.APIKey)
	})

	t.Run("explicit values override defaults", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("browser.headless", false)
		v.Set("agent.max_steps", 7)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 7, cfg.Agent.MaxSteps)
	})

	t.Run("invalid config is rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("agent.max_steps", 0)
		_, err := NewConfigFromViper(v)
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "bad logger format",
			mutate:  func(c *Config) { c.Logger.Format = "xml" },
			wantErr: "invalid logger format",
		},
		{
			name:    "zero max steps",
			mutate:  func(c *Config) { c.Agent.MaxSteps = 0 },
			wantErr: "max_steps",
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.Agent.Extractor.RateLimit = -1 },
			wantErr: "rate_limit",
		},
		{
			name: "audit enabled without host",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.Postgres.Host = ""
			},
			wantErr: "audit.postgres.host",
		},
		{
			name: "audit disabled tolerates missing host",
			mutate: func(c *Config) {
				c.Audit.Enabled = false
				c.Audit.Postgres.Host = ""
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "audit",
		Password: "secret",
		DBName:   "webpilot_audit",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=audit password=secret dbname=webpilot_audit sslmode=require",
		p.DSN())
}
