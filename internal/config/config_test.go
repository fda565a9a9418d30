package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/automatrixhq/automatrix/internal/domain/model"
)

// allConfigKeys lists every AUTOMATRIX_ env var that Load() reads.
var allConfigKeys = []string{
	"AUTOMATRIX_LISTEN_ADDR",
	"AUTOMATRIX_DB_PATH",
	"AUTOMATRIX_PUBLIC_URL",
	"AUTOMATRIX_WORKFLOWS_DIR",
	"AUTOMATRIX_SUPABASE_URL",
	"AUTOMATRIX_SUPABASE_ANON_KEY",
	"AUTOMATRIX_AUTH_PROVIDERS",
	"AUTOMATRIX_JWT_SECRET",
	"AUTOMATRIX_SESSION_TTL",
	"AUTOMATRIX_STRIPE_SECRET_KEY",
	"AUTOMATRIX_STRIPE_WEBHOOK_SECRET",
	"AUTOMATRIX_STRIPE_PRICE_PRO",
	"AUTOMATRIX_STRIPE_PRICE_BUSINESS",
	"AUTOMATRIX_AUTOMATION_WEBHOOK_URL",
	"AUTOMATRIX_AUTOMATION_TIMEOUT",
	"AUTOMATRIX_CHAT_RATE_LIMIT",
	"AUTOMATRIX_CATALOG_REPO",
	"AUTOMATRIX_CATALOG_PATH",
	"AUTOMATRIX_CATALOG_REF",
	"AUTOMATRIX_CATALOG_TOKEN",
	"AUTOMATRIX_CATALOG_INTERVAL",
	"AUTOMATRIX_LOG_LEVEL",
	"AUTOMATRIX_LOG_FORMAT",
}

// isolateConfigEnv saves and unsets all AUTOMATRIX_ env vars so tests don't
// inherit values from the host environment, and runs the test from an empty
// directory so no .env file is picked up. t.Cleanup restores both.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("AUTOMATRIX_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("AUTOMATRIX_DB_PATH", "/tmp/test.db")
	t.Setenv("AUTOMATRIX_PUBLIC_URL", "https://automatrix.example/")
	t.Setenv("AUTOMATRIX_JWT_SECRET", "s3cret")
	t.Setenv("AUTOMATRIX_SESSION_TTL", "12h")
	t.Setenv("AUTOMATRIX_STRIPE_SECRET_KEY", "sk_test")
	t.Setenv("AUTOMATRIX_STRIPE_WEBHOOK_SECRET", "whsec_test")
	t.Setenv("AUTOMATRIX_STRIPE_PRICE_PRO", "price_pro")
	t.Setenv("AUTOMATRIX_AUTH_PROVIDERS", " github , ,gitlab")
	t.Setenv("AUTOMATRIX_CHAT_RATE_LIMIT", "5")
	t.Setenv("AUTOMATRIX_CATALOG_INTERVAL", "15m")
	t.Setenv("AUTOMATRIX_LOG_LEVEL", "debug")
	t.Setenv("AUTOMATRIX_LOG_FORMAT", "JSON")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "https://automatrix.example", cfg.PublicURL)
	assert.True(t, cfg.SecureCookies())
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.HasPayments())
	assert.Equal(t, map[model.Tier]string{model.TierPro: "price_pro"}, cfg.Prices())
	assert.Equal(t, []string{"github", "gitlab"}, cfg.AuthProviders)
	assert.Equal(t, 5, cfg.ChatRateLimit)
	assert.Equal(t, 15*time.Minute, cfg.CatalogInterval)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.NoError(t, cfg.RequireServer())
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "automatrix.db", cfg.DBPath)
	assert.Equal(t, "http://localhost:8080", cfg.PublicURL)
	assert.Equal(t, "workflows", cfg.WorkflowsDir)
	assert.Equal(t, []string{"github", "google"}, cfg.AuthProviders)
	assert.Equal(t, 7*24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Second, cfg.AutomationTimeout)
	assert.Equal(t, 20, cfg.ChatRateLimit)
	assert.Equal(t, "workflows", cfg.CatalogPath)
	assert.Equal(t, time.Hour, cfg.CatalogInterval)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	assert.False(t, cfg.SecureCookies())
	assert.False(t, cfg.HasPayments())
	assert.False(t, cfg.HasAuth())
	assert.False(t, cfg.HasAutomation())
	assert.False(t, cfg.HasCatalog())
	assert.Empty(t, cfg.Prices())
}

// TestLoad_MissingSecret verifies that a missing JWT secret does not fail
// Load; only the server requires it.
func TestLoad_MissingSecret(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.ErrorIs(t, cfg.RequireServer(), ErrMissingSecret)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"AUTOMATRIX_SESSION_TTL", "forever"},
		{"AUTOMATRIX_SESSION_TTL", "-1h"},
		{"AUTOMATRIX_AUTOMATION_TIMEOUT", "soon"},
		{"AUTOMATRIX_CATALOG_INTERVAL", "0s"},
		{"AUTOMATRIX_CHAT_RATE_LIMIT", "many"},
		{"AUTOMATRIX_CHAT_RATE_LIMIT", "-3"},
		{"AUTOMATRIX_LOG_LEVEL", "loud"},
		{"AUTOMATRIX_LOG_FORMAT", "xml"},
		{"AUTOMATRIX_PUBLIC_URL", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			isolateConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	isolateConfigEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"),
		[]byte("AUTOMATRIX_DB_PATH=from-file.db\nAUTOMATRIX_LISTEN_ADDR=127.0.0.1:7000\n"), 0o600))
	t.Setenv("AUTOMATRIX_LISTEN_ADDR", "127.0.0.1:9000")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "from-file.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr, "real environment wins over .env")
}

func TestLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: slog.LevelWarn, LogFormat: "json"}

	logger := cfg.Logger(&buf)
	logger.Info("dropped")
	logger.Warn("kept", "key", "value")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}
