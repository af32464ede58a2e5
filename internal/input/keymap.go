package input

import "strings"

// modifierNames maps every accepted modifier spelling to its canonical
// injection name.
var modifierNames = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"meta":    "cmd",
	"cmd":     "cmd",
	"command": "cmd",
	"win":     "cmd",
	"super":   "cmd",
}

// namedKeys maps browser-style key names to injection names.
var namedKeys = map[string]string{
	"enter":      "enter",
	"return":     "enter",
	"escape":     "esc",
	"esc":        "esc",
	"space":      "space",
	" ":          "space",
	"tab":        "tab",
	"backspace":  "backspace",
	"delete":     "delete",
	"insert":     "insert",
	"home":       "home",
	"end":        "end",
	"pageup":     "pageup",
	"pagedown":   "pagedown",
	"arrowup":    "up",
	"arrowdown":  "down",
	"arrowleft":  "left",
	"arrowright": "right",
	"up":         "up",
	"down":       "down",
	"left":       "left",
	"right":      "right",
	"f1":         "f1",
	"f2":         "f2",
	"f3":         "f3",
	"f4":         "f4",
	"f5":         "f5",
	"f6":         "f6",
	"f7":         "f7",
	"f8":         "f8",
	"f9":         "f9",
	"f10":        "f10",
	"f11":        "f11",
	"f12":        "f12",
}

// resolveModifier returns the canonical modifier name, or false if name is
// not a modifier.
func resolveModifier(name string) (string, bool) {
	mod, ok := modifierNames[strings.ToLower(name)]
	return mod, ok
}

// resolveKey maps a client key name to an injectable key name. Single
// characters pass through as literal keys. Unknown multi-character names
// resolve to "" and are dropped by the caller.
func resolveKey(name string) string {
	k := strings.ToLower(name)
	if mapped, ok := namedKeys[k]; ok {
		return mapped
	}
	if mod, ok := modifierNames[k]; ok {
		return mod
	}
	if len([]rune(k)) == 1 {
		return k
	}
	return ""
}

// normalizeButton maps a client button name to an injection button name,
// defaulting to the primary button.
func normalizeButton(button string) string {
	switch strings.ToLower(button) {
	case "right", "r":
		return "right"
	case "center", "middle", "m":
		return "center"
	default:
		return "left"
	}
}
