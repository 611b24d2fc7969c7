package stage

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"

	"screen-ocr-translate/src/scene"
)

// modifiers tracks held modifier keys; desktop key events carry none.
type modifiers struct {
	alt, ctrl, shift bool
}

func (m *modifiers) set(name fyne.KeyName, down bool) bool {
	switch name {
	case desktop.KeyAltLeft, desktop.KeyAltRight:
		m.alt = down
	case desktop.KeyControlLeft, desktop.KeyControlRight:
		m.ctrl = down
	case desktop.KeyShiftLeft, desktop.KeyShiftRight:
		m.shift = down
	default:
		return false
	}
	return true
}

// keyName maps a fyne key to the scene key name: "Escape" or a lower-case
// letter or digit. Other keys keep the fyne name.
func keyName(name fyne.KeyName) string {
	if name == fyne.KeyEscape {
		return scene.KeyEscape
	}
	s := string(name)
	if len(s) == 1 {
		return strings.ToLower(s)
	}
	return s
}

func (s *Stage) bindKeys() {
	dc, ok := s.win.Canvas().(desktop.Canvas)
	if !ok {
		s.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
			s.key(ev.Name, modifiers{})
		})
		return
	}
	var mods modifiers
	dc.SetOnKeyDown(func(ev *fyne.KeyEvent) {
		if mods.set(ev.Name, true) {
			return
		}
		s.key(ev.Name, mods)
	})
	dc.SetOnKeyUp(func(ev *fyne.KeyEvent) {
		mods.set(ev.Name, false)
	})
}

// key delivers one key press to the scene, then to OnKey. UI goroutine.
func (s *Stage) key(name fyne.KeyName, mods modifiers) {
	ev := &scene.Event{Type: scene.KeyDown, Key: keyName(name), Alt: mods.alt, Ctrl: mods.ctrl, Shift: mods.shift}
	s.doc.Dispatch(ev)
	if s.OnKey != nil {
		s.OnKey(ev)
	}
	s.sync()
}
