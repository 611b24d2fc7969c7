package tray

import (
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/settings"
)

func newTestTray(t *testing.T) (*Tray, *settings.Store) {
	t.Helper()
	store, err := settings.Open(filepath.Join(t.TempDir(), "settings.json"))
	require.NoError(t, err)
	tr := &Tray{
		cfg:     Config{Settings: store},
		status:  fyne.NewMenuItem(labelIdleStatus, nil),
		capture: fyne.NewMenuItem(labelCapture, nil),
		showFab: fyne.NewMenuItem(labelShowFab, nil),
		full:    fyne.NewMenuItem(labelFullMode, nil),
	}
	tr.sync(store.Load())
	return tr, store
}

func TestToggleFab(t *testing.T) {
	tr, store := newTestTray(t)
	require.True(t, tr.showFab.Checked)

	tr.toggleFab()
	require.False(t, store.Load().ShowFab)
	tr.toggleFab()
	require.True(t, store.Load().ShowFab)
}

func TestToggleMode(t *testing.T) {
	tr, store := newTestTray(t)
	require.False(t, tr.full.Checked)

	tr.toggleMode()
	require.Equal(t, settings.ModeFull, store.Load().TranslationMode)
	tr.sync(store.Load())
	require.True(t, tr.full.Checked)

	tr.toggleMode()
	require.Equal(t, settings.ModeVocabulary, store.Load().TranslationMode)
}

func TestCaptureCallback(t *testing.T) {
	calls := 0
	tr := &Tray{cfg: Config{OnCapture: func() { calls++ }}}
	tr.onCapture()
	require.Equal(t, 1, calls)

	require.NotPanics(t, (&Tray{}).onCapture)
	require.NotPanics(t, (&Tray{}).toggleFab)
}
