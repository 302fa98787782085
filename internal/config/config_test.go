package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "hoa.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Server.PageSize)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, int64(2048), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.Anthropic.Timeout())
	assert.Equal(t, "https://api.postmarkapp.com", cfg.Postmark.BaseURL)
	assert.Equal(t, "noreply@example.com", cfg.Postmark.FromEmail)
	assert.Equal(t, 30*time.Second, cfg.Postmark.Timeout())
	assert.InDelta(t, 10, cfg.Postmark.RateLimit, 0.001)
	assert.Equal(t, "Property Management Team", cfg.Team.Name)
	assert.Empty(t, cfg.Anthropic.Key)
	assert.Empty(t, cfg.Postmark.Token)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/hoa
log:
  level: debug
  format: console
server:
  port: 9090
  cors_origins:
    - https://admin.example.com
postmark:
  demo_email: demo@example.com
  inbound_address: abc@inbound.postmarkapp.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/hoa", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "demo@example.com", cfg.Postmark.DemoEmail)
	assert.Equal(t, "abc@inbound.postmarkapp.com", cfg.Postmark.InboundAddress)
	// Defaults still apply for unset values
	assert.Equal(t, 12, cfg.Server.PageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("HOA_STORE_DRIVER", "sqlite")
	t.Setenv("HOA_LOG_LEVEL", "warn")
	t.Setenv("HOA_ANTHROPIC_KEY", "sk-ant-test")
	t.Setenv("HOA_POSTMARK_TOKEN", "pm-token")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
	assert.Equal(t, "pm-token", cfg.Postmark.Token)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "hoa.db"
	cfg.Server.Port = 8080
	cfg.Server.PageSize = 12
	cfg.Anthropic.MaxTokens = 2048
	cfg.Anthropic.TimeoutSecs = 60
	cfg.Postmark.FromEmail = "noreply@example.com"
	cfg.Postmark.TimeoutSecs = 30
	return cfg
}

func TestValidateStore(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("store"))

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""
	err := cfg.Validate("store")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = "x"
	err = cfg.Validate("store")
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateClassify_MissingKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("classify")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredential))
	assert.Contains(t, err.Error(), "anthropic.key is required")

	cfg.Anthropic.Key = "sk-ant-key"
	assert.NoError(t, cfg.Validate("classify"))
}

func TestValidateClassify_Limits(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Anthropic.TimeoutSecs = 0

	err := cfg.Validate("classify")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "anthropic.timeout_secs must be > 0")
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	cfg.Server.PageSize = 0
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
	assert.Contains(t, err.Error(), "server.page_size must be > 0")
}

func TestValidateSend(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("send"))

	cfg.Postmark.FromEmail = ""
	err := cfg.Validate("send")
	assert.True(t, errors.Is(err, ErrMissingCredential))
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
