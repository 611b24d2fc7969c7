package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	t.Setenv(APIKeyEnvVar, "test_api_key")
	t.Setenv("MODEL", "test_model")
	t.Setenv("TEXT_MODEL", "text_model")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("PROVIDER", " OpenRouter ")
	t.Setenv("DEVICE_SCALE", "1.5")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "test_api_key", cfg.APIKey)
	require.Equal(t, "test_model", cfg.Model)
	require.Equal(t, "text_model", cfg.TextModel)
	require.True(t, cfg.EnableFileLogging)
	require.Equal(t, "openrouter", cfg.Provider)
	require.Equal(t, 1.5, cfg.DeviceScale)
	require.Equal(t, DefaultOCRDeadlineSec, cfg.OCRDeadlineSec)
	require.Equal(t, DefaultPracticeSeconds, cfg.PracticeSeconds)
}

func TestAPIKeyFileWins(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "groq")
	require.NoError(t, os.WriteFile(keyFile, []byte("  file_key\n"), 0o600))
	t.Setenv(APIKeyEnvVar, "env_key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	require.NoError(t, err)
	require.Equal(t, "file_key", cfg.APIKey)
	require.Equal(t, keyFile, cfg.APIKeyPath)
}

func TestNumericFallbacks(t *testing.T) {
	t.Setenv("OCR_DEADLINE_SEC", "-3")
	t.Setenv("PRACTICE_SECONDS", "eight")
	t.Setenv("DEVICE_SCALE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultOCRDeadlineSec, cfg.OCRDeadlineSec)
	require.Equal(t, DefaultPracticeSeconds, cfg.PracticeSeconds)
	require.Zero(t, cfg.DeviceScale)

	t.Setenv("OCR_DEADLINE_SEC", "45")
	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, 45, cfg.OCRDeadlineSec)
}

func TestSettingsPathOverride(t *testing.T) {
	t.Setenv("SETTINGS_PATH", "/tmp/from-env.json")
	cfg, err := LoadWithOptions(LoadOptions{SettingsPathOverride: "/tmp/flag.json"})
	require.NoError(t, err)
	require.Equal(t, "/tmp/flag.json", cfg.SettingsPath)
}
