// Package settings is the key-value settings store read by the capture
// pipeline and written by the CLI. It is a JSON file watched for changes so
// the running app can react (FAB visibility, theme, hotkey mode).
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Setting keys as they appear in the JSON file.
const (
	KeyAPIKey          = "apiKey"
	KeyProvider        = "provider"
	KeyTargetLang      = "targetLang"
	KeyTheme           = "theme"
	KeyShowFab         = "showFab"
	KeyHotkeyMode      = "hotkeyMode"
	KeyTranslationMode = "translationMode"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
	ThemeAuto  = "auto"

	HotkeyAltQ     = "alt_q"
	HotkeyQ        = "q"
	HotkeyDisabled = "disabled"

	ModeVocabulary = "vocabulary"
	ModeFull       = "full"
)

// Settings is one snapshot of the store.
type Settings struct {
	APIKey          string `json:"apiKey"`
	Provider        string `json:"provider"`
	TargetLang      string `json:"targetLang"`
	Theme           string `json:"theme"`
	ShowFab         bool   `json:"showFab"`
	HotkeyMode      string `json:"hotkeyMode"`
	TranslationMode string `json:"translationMode"`
}

// Defaults returns the values used for keys missing from the file.
func Defaults() Settings {
	return Settings{
		Provider:        "groq",
		TargetLang:      "vi",
		Theme:           ThemeLight,
		ShowFab:         true,
		HotkeyMode:      HotkeyAltQ,
		TranslationMode: ModeVocabulary,
	}
}

var allowed = map[string][]string{
	KeyProvider:        {"groq", "openrouter"},
	KeyTheme:           {ThemeLight, ThemeDark, ThemeAuto},
	KeyHotkeyMode:      {HotkeyAltQ, HotkeyQ, HotkeyDisabled},
	KeyTranslationMode: {ModeVocabulary, ModeFull},
	KeyTargetLang:      {"vi", "en", "ja", "ko", "zh", "fr", "de", "ru"},
}

// Keys lists every setting key in file order.
func Keys() []string {
	return []string{KeyAPIKey, KeyProvider, KeyTargetLang, KeyTheme, KeyShowFab, KeyHotkeyMode, KeyTranslationMode}
}

// Allowed returns the permitted values of an enumerated key, or nil.
func Allowed(key string) []string { return allowed[key] }

// Get returns the value of key as text.
func (s Settings) Get(key string) (string, error) {
	switch key {
	case KeyAPIKey:
		return s.APIKey, nil
	case KeyProvider:
		return s.Provider, nil
	case KeyTargetLang:
		return s.TargetLang, nil
	case KeyTheme:
		return s.Theme, nil
	case KeyShowFab:
		return strconv.FormatBool(s.ShowFab), nil
	case KeyHotkeyMode:
		return s.HotkeyMode, nil
	case KeyTranslationMode:
		return s.TranslationMode, nil
	}
	return "", fmt.Errorf("unknown setting %q", key)
}

// Set validates value and stores it under key.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	if opts, ok := allowed[key]; ok && !contains(opts, value) {
		return fmt.Errorf("invalid %s %q (allowed: %s)", key, value, strings.Join(opts, ", "))
	}
	switch key {
	case KeyAPIKey:
		s.APIKey = value
	case KeyProvider:
		s.Provider = value
	case KeyTargetLang:
		s.TargetLang = value
	case KeyTheme:
		s.Theme = value
	case KeyShowFab:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		s.ShowFab = b
	case KeyHotkeyMode:
		s.HotkeyMode = value
	case KeyTranslationMode:
		s.TranslationMode = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// normalize replaces blank or unknown enumerated values with defaults.
func (s *Settings) normalize() {
	d := Defaults()
	fix := func(key string, v *string, def string) {
		if !contains(allowed[key], *v) {
			*v = def
		}
	}
	fix(KeyProvider, &s.Provider, d.Provider)
	fix(KeyTheme, &s.Theme, d.Theme)
	fix(KeyHotkeyMode, &s.HotkeyMode, d.HotkeyMode)
	fix(KeyTranslationMode, &s.TranslationMode, d.TranslationMode)
	if strings.TrimSpace(s.TargetLang) == "" {
		s.TargetLang = d.TargetLang
	}
	s.APIKey = strings.TrimSpace(s.APIKey)
}

// Dark reports whether the theme renders dark. systemDark is the desktop
// preference used by ThemeAuto.
func (s Settings) Dark(systemDark bool) bool {
	return s.Theme == ThemeDark || (s.Theme == ThemeAuto && systemDark)
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// Change describes a reload observed by Watch or caused by Save.
type Change struct {
	Old Settings
	New Settings
}

// Keys returns the keys whose values differ, sorted.
func (c Change) Keys() []string {
	var out []string
	for _, k := range Keys() {
		a, _ := c.Old.Get(k)
		b, _ := c.New.Get(k)
		if a != b {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Has reports whether key changed.
func (c Change) Has(key string) bool {
	for _, k := range c.Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// Store is a JSON-file backed settings store. It is safe for concurrent use.
type Store struct {
	path string

	mu        sync.RWMutex
	current   Settings
	callbacks []func(Change)
	watching  bool
	closeFn   func() error
}

// DefaultPath returns settings.json under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(dir, "screen-ocr-translate", "settings.json"), nil
}

// Open loads the store at path. A missing file yields defaults.
func Open(path string) (*Store, error) {
	s := &Store{path: path}
	cur, err := read(path)
	if err != nil {
		return nil, err
	}
	s.current = cur
	return s, nil
}

func (s *Store) Path() string { return s.path }

func read(path string) (Settings, error) {
	cur := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cur, nil
	}
	if err != nil {
		return cur, fmt.Errorf("failed to read settings: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return cur, nil
	}
	if err := json.Unmarshal(data, &cur); err != nil {
		return Defaults(), fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	cur.normalize()
	return cur, nil
}

// Load returns the current snapshot.
func (s *Store) Load() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies fn to a copy of the current settings and saves the result.
func (s *Store) Update(fn func(*Settings) error) error {
	s.mu.Lock()
	next := s.current
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	next.normalize()
	if err := write(s.path, next); err != nil {
		s.mu.Unlock()
		return err
	}
	change := Change{Old: s.current, New: next}
	s.current = next
	s.notifyLocked(change)
	return nil
}

// Set validates and saves one key.
func (s *Store) Set(key, value string) error {
	return s.Update(func(cur *Settings) error { return cur.Set(key, value) })
}

// OnChange registers fn to run after every change, from Save or the watcher.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// notifyLocked copies the callbacks, releases the lock, then calls them.
// Must be called with s.mu held for write.
func (s *Store) notifyLocked(change Change) {
	callbacks := make([]func(Change), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	if len(change.Keys()) == 0 {
		return
	}
	for _, fn := range callbacks {
		fn(change)
	}
}

// reload re-reads the file and notifies when anything changed.
func (s *Store) reload() error {
	next, err := read(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	change := Change{Old: s.current, New: next}
	s.current = next
	s.notifyLocked(change)
	return nil
}

func write(path string, cur Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	data, err := json.MarshalIndent(cur, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
