package stage

import (
	"strings"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/stretchr/testify/require"

	"screen-ocr-translate/src/geometry"
	"screen-ocr-translate/src/scene"
)

func TestNeedsWindow(t *testing.T) {
	doc := scene.New(geometry.Viewport{Width: 800, Height: 600})
	require.False(t, NeedsWindow(doc))

	doc.Append(doc.Create(scene.KindFAB, "ocr-fab"))
	require.False(t, NeedsWindow(doc), "floating button alone")

	toast := doc.Append(doc.Create(scene.KindToast, ""))
	require.True(t, NeedsWindow(doc))
	toast.SetHidden(true)
	require.False(t, NeedsWindow(doc))

	doc.Append(doc.Create(scene.KindOverlay, "ocr-overlay"))
	require.True(t, NeedsWindow(doc))
}

func TestKeyName(t *testing.T) {
	require.Equal(t, scene.KeyEscape, keyName(fyne.KeyEscape))
	require.Equal(t, "q", keyName(fyne.KeyQ))
	require.Equal(t, "1", keyName(fyne.Key1))
	require.Equal(t, "Return", keyName(fyne.KeyReturn))
}

func TestModifiers(t *testing.T) {
	var m modifiers
	require.True(t, m.set(desktop.KeyAltLeft, true))
	require.True(t, m.alt)
	require.False(t, m.set(fyne.KeyQ, true))
	require.True(t, m.set(desktop.KeyAltLeft, false))
	require.False(t, m.alt)
}

func TestWrap(t *testing.T) {
	width := func(s string) float64 { return float64(len([]rune(s))) }
	lines := wrap("the quick brown fox\njumps", 10, width)
	require.Equal(t, []string{"the quick", "brown fox", "jumps"}, lines)

	long := strings.Repeat("x", 15)
	require.Equal(t, []string{long}, wrap(long, 10, width))
	require.Equal(t, []string{""}, wrap("", 10, width))
}
