// Package tray is the persistent entry point of the resident app: a system
// tray menu to start a capture and flip the common settings.
package tray

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"screen-ocr-translate/src/messages"
	"screen-ocr-translate/src/settings"
)

const (
	labelCapture    = "Capture region"
	labelShowFab    = "Show floating button"
	labelFullMode   = "Full translation"
	labelIdleStatus = "Ready"
)

// Config holds the tray callbacks.
type Config struct {
	Title     string
	OnCapture func()
	// Settings is updated by the toggle items. May be nil.
	Settings *settings.Store
}

// Tray owns the menu. All methods are safe from any goroutine.
type Tray struct {
	desk desktop.App
	cfg  Config
	menu *fyne.Menu

	status  *fyne.MenuItem
	capture *fyne.MenuItem
	showFab *fyne.MenuItem
	full    *fyne.MenuItem
}

// New installs the tray menu. ok is false when the app has no tray (for
// example on mobile drivers).
func New(app fyne.App, cfg Config) (t *Tray, ok bool) {
	desk, ok := app.(desktop.App)
	if !ok {
		log.Printf("Tray: system tray not supported by driver")
		return nil, false
	}
	t = &Tray{desk: desk, cfg: cfg}
	t.status = fyne.NewMenuItem(labelIdleStatus, nil)
	t.status.Disabled = true
	t.capture = fyne.NewMenuItem(labelCapture, t.onCapture)
	t.showFab = fyne.NewMenuItem(labelShowFab, t.toggleFab)
	t.full = fyne.NewMenuItem(labelFullMode, t.toggleMode)

	title := cfg.Title
	if title == "" {
		title = "Screen OCR Translate"
	}
	t.menu = fyne.NewMenu(title, t.status, fyne.NewMenuItemSeparator(), t.capture, t.showFab, t.full)
	if cfg.Settings != nil {
		t.sync(cfg.Settings.Load())
	}
	desk.SetSystemTrayIcon(Icon)
	desk.SetSystemTrayMenu(t.menu)
	return t, true
}

func (t *Tray) onCapture() {
	if t.cfg.OnCapture != nil {
		t.cfg.OnCapture()
	}
}

func (t *Tray) toggleFab() {
	if t.cfg.Settings == nil {
		return
	}
	if err := t.cfg.Settings.Update(func(s *settings.Settings) error {
		s.ShowFab = !s.ShowFab
		return nil
	}); err != nil {
		log.Printf("Tray: failed to save settings: %v", err)
	}
}

func (t *Tray) toggleMode() {
	if t.cfg.Settings == nil {
		return
	}
	err := t.cfg.Settings.Update(func(s *settings.Settings) error {
		if s.TranslationMode == settings.ModeFull {
			s.TranslationMode = settings.ModeVocabulary
		} else {
			s.TranslationMode = settings.ModeFull
		}
		return nil
	})
	if err != nil {
		log.Printf("Tray: failed to save settings: %v", err)
	}
}

// SetStatus shows the loop status as the first menu line.
func (t *Tray) SetStatus(s messages.StatusChanged) {
	fyne.Do(func() {
		label := labelIdleStatus
		if s.Busy {
			label = s.Tooltip
		}
		t.status.Label = label
		t.capture.Disabled = s.Busy
		t.menu.Refresh()
	})
}

// OnSettingsChange keeps the check marks in line with the settings file.
func (t *Tray) OnSettingsChange(c settings.Change) {
	fyne.Do(func() {
		t.sync(c.New)
		t.menu.Refresh()
	})
}

func (t *Tray) sync(s settings.Settings) {
	t.showFab.Checked = s.ShowFab
	t.full.Checked = s.TranslationMode == settings.ModeFull
}
