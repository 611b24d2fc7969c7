package runtimeinit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/config"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.APIKeyPathEnvVar, filepath.Join(dir, "no-key"))
	t.Setenv(config.APIKeyEnvVar, "")
	t.Setenv("SETTINGS_PATH", filepath.Join(dir, "settings.json"))
	return dir
}

func TestBootstrapWithoutKeySkipsPing(t *testing.T) {
	isolate(t)
	logged := false
	rt, err := Bootstrap(context.Background(), Options{SetupLogging: func(bool) { logged = true }})
	require.NoError(t, err)
	require.True(t, logged)
	require.Empty(t, rt.APIKey())
	require.Equal(t, "vi", rt.Settings.Load().TargetLang)
}

func TestBootstrapPingsWithSettingsKey(t *testing.T) {
	dir := isolate(t)
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()
	t.Setenv("LLM_BASE_URL", srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.json"), []byte(`{"apiKey":"gsk_settings"}`), 0o600))

	rt, err := Bootstrap(context.Background(), Options{})
	require.NoError(t, err)
	require.Equal(t, "Bearer gsk_settings", auth)
	require.Equal(t, "gsk_settings", rt.APIKey())
}

func TestBootstrapPingFailure(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key"}}`))
	}))
	defer srv.Close()
	t.Setenv("LLM_BASE_URL", srv.URL)
	t.Setenv(config.APIKeyEnvVar, "gsk_bad")

	_, err := Bootstrap(context.Background(), Options{})
	require.ErrorContains(t, err, "startup check failed")
}

func TestClientForFallsBackToEnvKey(t *testing.T) {
	isolate(t)
	t.Setenv(config.APIKeyEnvVar, "gsk_env")
	rt, err := Bootstrap(context.Background(), Options{SkipPing: true})
	require.NoError(t, err)
	require.Equal(t, "gsk_env", rt.ClientFor(rt.Settings.Load()).Config().APIKey)
}
