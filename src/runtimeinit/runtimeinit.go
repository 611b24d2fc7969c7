package runtimeinit

import (
	"context"
	"fmt"
	"log"
	"time"

	"screen-ocr-translate/src/clipboard"
	"screen-ocr-translate/src/config"
	"screen-ocr-translate/src/llm"
	"screen-ocr-translate/src/logutil"
	"screen-ocr-translate/src/notification"
	"screen-ocr-translate/src/settings"
)

const pingTimeout = 10 * time.Second

type Options struct {
	LoadOptions          config.LoadOptions
	SetupLogging         func(bool)
	ShowBlockingLLMError bool
	// SkipPing disables the startup reachability check.
	SkipPing bool
}

// Runtime is what every entry point needs after startup.
type Runtime struct {
	Config   *config.Config
	Settings *settings.Store
	Client   *llm.Client
}

// APIKey returns the key from the settings store, or the environment
// fallback.
func (r *Runtime) APIKey() string {
	if key := r.Settings.Load().APIKey; key != "" {
		return key
	}
	return r.Config.APIKey
}

// ClientFor returns the client bound to the current settings key and
// provider.
func (r *Runtime) ClientFor(s settings.Settings) *llm.Client {
	key := s.APIKey
	if key == "" {
		key = r.Config.APIKey
	}
	return r.Client.WithKey(key, s.Provider)
}

func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	path := cfg.SettingsPath
	if path == "" {
		if path, err = settings.DefaultPath(); err != nil {
			return nil, fmt.Errorf("failed to locate settings: %w", err)
		}
	}
	store, err := settings.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings %s: %w", path, err)
	}
	current := store.Load()

	provider := current.Provider
	if cfg.Provider != "" && current.APIKey == "" {
		provider = cfg.Provider
	}
	rt := &Runtime{Config: cfg, Settings: store}
	rt.Client = llm.New(llm.Config{
		APIKey:          rt.APIKey(),
		Provider:        provider,
		BaseURL:         cfg.BaseURL,
		Model:           cfg.Model,
		TextModel:       cfg.TextModel,
		TranscribeModel: cfg.TranscribeModel,
	})
	log.Printf("Settings: %s (provider=%s, lang=%s, mode=%s, key=%s)",
		path, provider, current.TargetLang, current.TranslationMode, logutil.RedactKey(rt.APIKey()))

	switch {
	case opts.SkipPing:
	case rt.APIKey() == "":
		log.Printf("No API key configured; captures will ask for one")
	default:
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := rt.Client.Ping(pctx)
		cancel()
		if err != nil {
			if opts.ShowBlockingLLMError {
				notification.ShowBlockingError("LLM unavailable", fmt.Sprintf("Startup check failed: %v\n\nPlease verify your API key and network connectivity.", err))
			}
			return nil, fmt.Errorf("startup check failed: %w", err)
		}
		log.Printf("LLM ping succeeded")
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable, copy disabled: %v", err)
	}

	return rt, nil
}
