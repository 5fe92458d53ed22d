package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "STORE_DRIVER", "SESSION_TTL_HOURS", "ADMIN_CREDENTIAL_SOURCE", "SITE_URL", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, CredentialSourceStore, cfg.CredentialSource)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvParsesOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL_HOURS", "24")
	t.Setenv("ADMIN_EMAIL", "  Admin@MyNature.ma ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://mynature.ma, ,https://www.mynature.ma")
	t.Setenv("LOGIN_RATE_PER_MINUTE", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "admin@mynature.ma", cfg.AdminEmail)
	assert.Equal(t, []string{"https://mynature.ma", "https://www.mynature.ma"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		AppEnv:           "production",
		StoreDriver:      DriverPostgres,
		CredentialSource: CredentialSourceEnv,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
	assert.Contains(t, err.Error(), "ADMIN_PASSWORD_HASH")
	assert.Contains(t, err.Error(), "SESSION_SECRET")

	ok := Config{
		AppEnv:            "development",
		StoreDriver:       DriverMemory,
		CredentialSource:  CredentialSourceEnv,
		AdminEmail:        "admin@mynature.ma",
		AdminPasswordHash: "$2a$10$abcdefghijklmnopqrstuu",
	}
	assert.NoError(t, ok.Validate())
}

func TestValidateMemoryStoreNeedsEnvAdmin(t *testing.T) {
	cfg := Config{
		AppEnv:           "development",
		StoreDriver:      DriverMemory,
		CredentialSource: CredentialSourceStore,
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_CREDENTIAL_SOURCE=env is required when STORE_DRIVER=memory")
}
