package platform

import (
	"fmt"
	"strconv"
	"strings"
)

var namedKeys = map[string]string{
	"space":     "Space",
	"enter":     "Enter",
	"return":    "Enter",
	"tab":       "Tab",
	"esc":       "Esc",
	"escape":    "Esc",
	"backspace": "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"insert":    "Insert",
	"ins":       "Insert",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pgup":      "PageUp",
	"pagedown":  "PageDown",
	"pgdn":      "PageDown",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
}

// NormalizeKey maps a user-entered key name to its canonical token:
// "A".."Z", "0".."9", "F1".."F24", or one of the named keys ("Space",
// "Enter", "PageUp", ...).
func NormalizeKey(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" {
		return "", fmt.Errorf("%w: empty key", ErrUnknownKey)
	}

	if len(k) == 1 {
		c := strings.ToUpper(k)[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return string(c), nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	lower := strings.ToLower(k)
	if n, ok := functionKey(lower); ok {
		return "F" + strconv.Itoa(n), nil
	}
	if name, ok := namedKeys[lower]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func functionKey(lower string) (int, bool) {
	if !strings.HasPrefix(lower, "f") {
		return 0, false
	}
	n, err := strconv.Atoi(lower[1:])
	if err != nil || n < 1 || n > 24 {
		return 0, false
	}
	return n, true
}

// Windows virtual key codes for the named keys
var vkNamed = map[string]uint32{
	"Space":     0x20,
	"Enter":     0x0D,
	"Tab":       0x09,
	"Esc":       0x1B,
	"Backspace": 0x08,
	"Delete":    0x2E,
	"Insert":    0x2D,
	"Home":      0x24,
	"End":       0x23,
	"PageUp":    0x21,
	"PageDown":  0x22,
	"Left":      0x25,
	"Up":        0x26,
	"Right":     0x27,
	"Down":      0x28,
}

// VKCode returns the Windows virtual key code for a canonical key token
func VKCode(token string) (uint32, error) {
	if len(token) == 1 {
		// VK codes for A-Z and 0-9 equal their ASCII upper-case values
		return uint32(token[0]), nil
	}
	if n, ok := functionKey(strings.ToLower(token)); ok {
		return 0x70 + uint32(n-1), nil
	}
	if code, ok := vkNamed[token]; ok {
		return code, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, token)
}

// X11 keysym names for the named keys
var keysymNamed = map[string]string{
	"Space":     "space",
	"Enter":     "Return",
	"Tab":       "Tab",
	"Esc":       "Escape",
	"Backspace": "BackSpace",
	"Delete":    "Delete",
	"Insert":    "Insert",
	"Home":      "Home",
	"End":       "End",
	"PageUp":    "Prior",
	"PageDown":  "Next",
	"Left":      "Left",
	"Up":        "Up",
	"Right":     "Right",
	"Down":      "Down",
}

// KeysymName returns the X11 keysym name for a canonical key token.
// Letters use the lower-case keysym; shift is a modifier.
func KeysymName(token string) (string, error) {
	if len(token) == 1 {
		return strings.ToLower(token), nil
	}
	if n, ok := functionKey(strings.ToLower(token)); ok {
		return "F" + strconv.Itoa(n), nil
	}
	if name, ok := keysymNamed[token]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, token)
}

// x11Combo renders a binding in the dash-separated form xgbutil's keybind
// parses, e.g. "control-shift-v"
func x11Combo(b Binding) (string, error) {
	key, err := KeysymName(b.Key)
	if err != nil {
		return "", err
	}

	var parts []string
	if b.Ctrl {
		parts = append(parts, "control")
	}
	if b.Alt {
		parts = append(parts, "mod1")
	}
	if b.Shift {
		parts = append(parts, "shift")
	}
	if b.Meta {
		parts = append(parts, "mod4")
	}
	return strings.Join(append(parts, key), "-"), nil
}
