package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
// Empty values are treated as unset, so defaults apply.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "SERVER_PORT", "DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD", "JWT_SECRET", "SESSION_TTL_HOURS",
		"COOKIE_SECURE", "LOG_LEVEL", "LOG_FORMAT", "CURRENCY", "SWAGGER_HOST",
		"CORS_ALLOW_ORIGINS", "RESET_DB",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "sqlite://finhub.db")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "INR", cfg.Currency.String())
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigin)
	assert.False(t, cfg.ResetDB)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/finhub")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_TTL_HOURS", "12")
	t.Setenv("CURRENCY", "USD")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RESET_DB", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "USD", cfg.Currency.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowOrigin)
	assert.True(t, cfg.ResetDB)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database url",
			env:     map[string]string{"JWT_SECRET": "secret"},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "missing jwt secret",
			env:     map[string]string{"DATABASE_URL": "sqlite://finhub.db"},
			wantErr: "JWT_SECRET is required",
		},
		{
			name:    "invalid currency",
			env:     map[string]string{"DATABASE_URL": "sqlite://finhub.db", "JWT_SECRET": "secret", "CURRENCY": "rupees"},
			wantErr: "parse CURRENCY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
