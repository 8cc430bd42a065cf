package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "investorcrm", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "investorcrm", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5*time.Minute, cfg.Cache.PipelineTTL)
		assert.Equal(t, 30*24*time.Hour, cfg.Scheduler.PurgeRetention)
		assert.Equal(t, 5, cfg.LLM.MaxToolRounds)
		assert.Equal(t, "crm_", cfg.Search.IndexPrefix)
		assert.Equal(t, "http://localhost:8080/api/v1/integrations/google/callback", cfg.Google.RedirectURL)
	})

	t.Run("loads values from environment variables with CRM prefix", func(t *testing.T) {
		t.Setenv("CRM_APP_NAME", "test-app")
		t.Setenv("CRM_APP_PORT", "9000")
		t.Setenv("CRM_DATABASE_HOST", "testdb.local")
		t.Setenv("CRM_DATABASE_PORT", "5433")
		t.Setenv("CRM_DATABASE_PASSWORD", "testpass")
		t.Setenv("CRM_DATABASE_MAX_OPEN_CONNS", "50")
		t.Setenv("CRM_DATABASE_MAX_IDLE_CONNS", "10")
		t.Setenv("CRM_LLM_REQUESTS_PER_MINUTE", "20")
		t.Setenv("CRM_SCHEDULER_PURGE_RETENTION", "720h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, 50, cfg.Database.MaxOpenConns)
		assert.Equal(t, 10, cfg.Database.MaxIdleConns)
		assert.Equal(t, 20, cfg.LLM.RequestsPerMinute)
		assert.Equal(t, 720*time.Hour, cfg.Scheduler.PurgeRetention)
	})

	t.Run("rejects idle conns above open conns", func(t *testing.T) {
		t.Setenv("CRM_DATABASE_MAX_OPEN_CONNS", "5")
		t.Setenv("CRM_DATABASE_MAX_IDLE_CONNS", "10")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})
}

func TestValidate_Production(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.App.Env = "production"
		cfg.JWT.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		cfg.Cookie.Secure = true
		applyDefaults(cfg)
		return cfg
	}

	t.Run("valid production config", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"short jwt secret", func(c *Config) { c.JWT.Secret = "short" }, "jwt.secret"},
		{"same refresh secret", func(c *Config) { c.JWT.RefreshSecret = c.JWT.Secret }, "refresh_secret"},
		{"no db password", func(c *Config) { c.Database.Password = "" }, "database.password"},
		{"ssl disabled", func(c *Config) { c.Database.SSLMode = "disable" }, "sslmode"},
		{"insecure cookie", func(c *Config) { c.Cookie.Secure = false }, "cookie.secure"},
		{"wildcard cors", func(c *Config) { c.HTTP.CORSAllowOrigins = []string{"*"} }, "cors_allow_origins"},
		{"whatsapp without secret", func(c *Config) { c.Messaging.WhatsAppEnabled = true }, "whatsapp_app_secret"},
		{"sampling out of range", func(c *Config) { c.Telemetry.SamplingRatio = 2 }, "sampling_ratio"},
		{"tool rounds out of range", func(c *Config) { c.LLM.MaxToolRounds = 50 }, "max_tool_rounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestDatabaseConfig_URL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "crm", Password: "p@ss word", DBName: "crm", SSLMode: "disable"}
	assert.Equal(t, "postgres://crm:p%40ss%20word@db:5432/crm?sslmode=disable", d.URL())
	assert.Equal(t, d.URL(), d.DSN())
}
