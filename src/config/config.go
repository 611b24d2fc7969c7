package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/groq"
	APIKeyPathEnvVar  = "GROQ_API_KEY_FILE"
	APIKeyEnvVar      = "GROQ_API_KEY"
	// EnvPathVar points at a config file used when no .env sits next to the
	// executable.
	EnvPathVar = "SCREEN_OCR_TRANSLATE"

	DefaultOCRDeadlineSec  = 20
	DefaultPracticeSeconds = 5
)

type LoadOptions struct {
	APIKeyPathOverride   string
	SettingsPathOverride string
}

// Config is the process environment. Per-user preferences (target language,
// theme, hotkey mode) live in the settings store instead.
type Config struct {
	// APIKey is the fallback used when the settings store has none.
	APIKey            string
	APIKeyPath        string
	Provider          string
	BaseURL           string
	Model             string
	TextModel         string
	TranscribeModel   string
	EnableFileLogging bool
	OCRDeadlineSec    int
	SettingsPath      string
	// DeviceScale overrides the detected device pixel ratio when > 0.
	DeviceScale     float64
	TTSPlayer       string
	PracticeSeconds int
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_OCR_TRANSLATE env var as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	settingsPath := os.Getenv("SETTINGS_PATH")
	if override := strings.TrimSpace(opts.SettingsPathOverride); override != "" {
		settingsPath = override
	}

	cfg := &Config{
		APIKey:            resolveAPIKey(apiKeyPath),
		APIKeyPath:        apiKeyPath,
		Provider:          strings.ToLower(strings.TrimSpace(os.Getenv("PROVIDER"))),
		BaseURL:           os.Getenv("LLM_BASE_URL"),
		Model:             os.Getenv("MODEL"),
		TextModel:         os.Getenv("TEXT_MODEL"),
		TranscribeModel:   os.Getenv("TRANSCRIBE_MODEL"),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		OCRDeadlineSec:    positiveInt("OCR_DEADLINE_SEC", DefaultOCRDeadlineSec),
		SettingsPath:      settingsPath,
		DeviceScale:       positiveFloat("DEVICE_SCALE"),
		TTSPlayer:         os.Getenv("TTS_PLAYER"),
		PracticeSeconds:   positiveInt("PRACTICE_SECONDS", DefaultPracticeSeconds),
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvPathVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv(APIKeyEnvVar)
}

// positiveInt reads an integer env var, keeping def for unset, invalid or
// non-positive values.
func positiveInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func positiveFloat(key string) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f > 0 {
			return f
		}
	}
	return 0
}
