package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/hoa-onboard/internal/config"
	"github.com/sells-group/hoa-onboard/internal/model"
)

// withConfig installs a minimal sqlite config for the duration of the test.
func withConfig(t *testing.T) *config.Config {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "cmd.db")},
		Anthropic: config.AnthropicConfig{
			Model:       "claude-haiku-4-5-20251001",
			MaxTokens:   2048,
			TimeoutSecs: 60,
		},
		Postmark: config.PostmarkConfig{FromEmail: "noreply@example.com", TimeoutSecs: 30},
		Team:     config.TeamConfig{Name: "Property Management Team"},
		Server:   config.ServerConfig{Port: 8080, PageSize: 12},
	}
	t.Cleanup(func() { cfg = prev })
	return cfg
}

func TestInitStore_Unsupported(t *testing.T) {
	withConfig(t).Store.Driver = "mysql"

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestOpenStore_Migrates(t *testing.T) {
	withConfig(t)
	ctx := context.Background()

	st, err := openStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	n, err := st.CountHOAs(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenStore_InvalidConfig(t *testing.T) {
	withConfig(t).Store.DatabaseURL = ""

	_, err := openStore(context.Background())
	assert.ErrorIs(t, err, config.ErrMissingCredential)
}

func TestNewProcessor_RequiresKey(t *testing.T) {
	c := withConfig(t)
	assert.Nil(t, newProcessor(nil))

	c.Anthropic.Key = "sk-test"
	assert.NotNil(t, newProcessor(nil))
}

func TestBuildRouter(t *testing.T) {
	withConfig(t)
	ctx := context.Background()

	st, err := openStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	h := &model.HOA{Name: "Oak Ridge HOA", ContactEmail: "board@oakridge.example"}
	require.NoError(t, st.CreateHOA(ctx, h))

	router := buildRouter(st)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var dash map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.EqualValues(t, 1, dash["total_hoas"])

	// No LLM key: classification is disabled rather than panicking on a nil
	// processor.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/responses/1/parse-and-generate", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// Postmark is unconfigured, so the send is simulated.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/hoas/1/send-email", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "simulated")
}
