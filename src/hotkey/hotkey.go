// Package hotkey triggers captures from the keyboard: a global Alt+Q hook
// through gohook, and the in-window bindings (Alt+Q or bare Q) checked
// against scene key events.
package hotkey

import (
	"log"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"

	"screen-ocr-translate/src/scene"
	"screen-ocr-translate/src/settings"
)

// Combo returns the key combination for a hotkey mode, or "" when the mode
// has no global binding. Bare Q is only bound inside the app window, since a
// global hook on a letter would swallow typing everywhere.
func Combo(mode string) string {
	if mode == settings.HotkeyAltQ {
		return "alt+q"
	}
	return ""
}

// Matches reports whether a scene key event triggers a capture in mode.
// editing is true while focus is in a text input, where bare Q is typing.
func Matches(mode string, ev *scene.Event, editing bool) bool {
	if ev == nil || ev.Type != scene.KeyDown || !strings.EqualFold(ev.Key, "q") {
		return false
	}
	switch mode {
	case settings.HotkeyAltQ:
		return ev.Alt && !ev.Ctrl
	case settings.HotkeyQ:
		return !editing && !ev.Alt && !ev.Ctrl
	}
	return false
}

// Local reports whether the app window handles ev itself: only for modes
// without a global binding, so a global chord is not triggered twice.
func Local(mode string, ev *scene.Event, editing bool) bool {
	return Combo(mode) == "" && Matches(mode, ev, editing)
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(hotkeyConfig), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "win", "super":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

type keyState struct {
	name     string
	rawcodes []uint16
	pressed  bool
}

// matcher tracks which keys of one combination are held.
type matcher struct {
	combo string
	keys  []keyState
}

func newMatcher(combo string) *matcher {
	m := &matcher{combo: combo}
	for _, name := range parseHotkey(combo) {
		codes := keyNameToRawcodes(name)
		if len(codes) == 0 {
			log.Printf("Hotkey: cannot map key %q to rawcodes, hotkey may not work", name)
			continue
		}
		m.keys = append(m.keys, keyState{name: name, rawcodes: codes})
	}
	return m
}

func (m *matcher) valid() bool { return len(m.keys) > 0 }

// down records a key press and reports whether the whole combination is now
// held. A match resets the state so holding the keys fires once.
func (m *matcher) down(raw uint16) bool {
	for i := range m.keys {
		if hasCode(m.keys[i].rawcodes, raw) {
			m.keys[i].pressed = true
		}
	}
	for _, k := range m.keys {
		if !k.pressed {
			return false
		}
	}
	for i := range m.keys {
		m.keys[i].pressed = false
	}
	return len(m.keys) > 0
}

func (m *matcher) up(raw uint16) {
	for i := range m.keys {
		if hasCode(m.keys[i].rawcodes, raw) {
			m.keys[i].pressed = false
		}
	}
}

func hasCode(codes []uint16, raw uint16) bool {
	for _, c := range codes {
		if c == raw {
			return true
		}
	}
	return false
}

// Listener is the global keyboard hook. The bound mode can change while it
// runs.
type Listener struct {
	mu       sync.Mutex
	matcher  *matcher
	callback func()
	stop     chan struct{}
}

func NewListener(mode string, callback func()) *Listener {
	l := &Listener{callback: callback}
	l.SetMode(mode)
	return l
}

// SetMode rebinds the hook; modes without a global combination disable it.
func (l *Listener) SetMode(mode string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	combo := Combo(mode)
	if combo == "" {
		l.matcher = nil
		log.Printf("Hotkey: global hotkey disabled (mode %s)", mode)
		return
	}
	l.matcher = newMatcher(combo)
	log.Printf("Hotkey: listening for %s", combo)
}

// handle feeds one hook event. Modifiers arrive as KeyHold (pressed) only,
// so it counts as a press like KeyDown.
// It reports whether the callback should fire.
func (l *Listener) handle(kind uint8, raw uint16) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.matcher == nil || !l.matcher.valid() {
		return false
	}
	switch kind {
	case gohook.KeyDown, gohook.KeyHold:
		return l.matcher.down(raw)
	case gohook.KeyUp:
		l.matcher.up(raw)
	}
	return false
}

// Start runs the hook on its own goroutine until Stop.
func (l *Listener) Start() {
	l.mu.Lock()
	if l.stop != nil {
		l.mu.Unlock()
		return
	}
	l.stop = make(chan struct{})
	stop := l.stop
	l.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in hotkey goroutine: %v", r)
			}
		}()

		evChan := gohook.Start()
		if evChan == nil {
			log.Printf("Hotkey: gohook.Start() returned nil channel")
			return
		}
		defer gohook.End()

		for {
			select {
			case <-stop:
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Printf("Hotkey: event channel closed")
					return
				}
				if ev.Kind != gohook.KeyDown && ev.Kind != gohook.KeyHold && ev.Kind != gohook.KeyUp {
					continue
				}
				if l.handle(ev.Kind, ev.Rawcode) {
					log.Printf("Hotkey activated")
					if l.callback != nil {
						l.callback()
					}
				}
			}
		}
	}()
}

// Stop ends the hook.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stop != nil {
		close(l.stop)
		l.stop = nil
	}
}
