//go:build !windows

package hotkey

import "log"

// keyNameToRawcodes maps a key name to X11 keysyms, which is what the hook
// reports as rawcode on Linux. Letters match both cases.
func keyNameToRawcodes(keyName string) []uint16 {
	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c), uint16(c - 'a' + 'A')}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c)}
		}
	}
	if n, ok := functionKey(keyName); ok {
		return []uint16{uint16(0xffbd + n)} // XK_F1 = 0xffbe
	}
	switch keyName {
	case "ctrl":
		return []uint16{0xffe3, 0xffe4} // XK_Control_L, XK_Control_R
	case "alt":
		return []uint16{0xffe9, 0xffea} // XK_Alt_L, XK_Alt_R
	case "shift":
		return []uint16{0xffe1, 0xffe2} // XK_Shift_L, XK_Shift_R
	case "cmd":
		return []uint16{0xffeb, 0xffec} // XK_Super_L, XK_Super_R
	case "space":
		return []uint16{0x20}
	case "enter", "return":
		return []uint16{0xff0d}
	case "esc", "escape":
		return []uint16{0xff1b}
	case "tab":
		return []uint16{0xff09}
	}
	log.Printf("WARNING: Unknown key name '%s', cannot map to rawcode", keyName)
	return nil
}
