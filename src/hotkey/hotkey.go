// Package hotkey parses key combinations such as "Ctrl+Alt+H" and detects
// them in a stream of raw key events.
package hotkey

import (
	"fmt"
	"strings"
	"sync"
)

// Key is one element of a combo with every rawcode that satisfies it
// (left and right variants for modifiers).
type Key struct {
	Name     string
	Rawcodes []uint16
}

// Combo is a parsed hotkey.
type Combo struct {
	Raw  string
	Keys []Key
}

func (c Combo) String() string { return c.Raw }

// Windows virtual-key codes, as reported by the global hook in Rawcode.
var named = map[string][]uint16{
	"ctrl":      {162, 163}, // VK_LCONTROL, VK_RCONTROL
	"alt":       {164, 165}, // VK_LMENU, VK_RMENU
	"shift":     {160, 161}, // VK_LSHIFT, VK_RSHIFT
	"cmd":       {91, 92},   // VK_LWIN, VK_RWIN
	"space":     {32},
	"enter":     {13},
	"esc":       {27},
	"tab":       {9},
	"backspace": {8},
	"delete":    {46},
	"insert":    {45},
	"home":      {36},
	"end":       {35},
	"pageup":    {33},
	"pagedown":  {34},
	"left":      {37},
	"up":        {38},
	"right":     {39},
	"down":      {40},
}

var aliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"win":     "cmd",
	"super":   "cmd",
	"meta":    "cmd",
	"return":  "enter",
	"escape":  "esc",
	"del":     "delete",
	"ins":     "insert",
	"pgup":    "pageup",
	"pgdn":    "pagedown",
}

// rawcodes maps a normalized key name to its virtual-key codes.
func rawcodes(name string) []uint16 {
	if rc, ok := named[name]; ok {
		return rc
	}
	if len(name) == 1 {
		switch c := name[0]; {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c-'a') + 65}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c-'0') + 48}
		}
	}
	var n int
	if _, err := fmt.Sscanf(name, "f%d", &n); err == nil && fmt.Sprintf("f%d", n) == name && n >= 1 && n <= 24 {
		return []uint16{uint16(111 + n)} // VK_F1 = 112
	}
	return nil
}

// Parse turns "Ctrl+Alt+H" into a Combo. Names are case-insensitive.
func Parse(combo string) (Combo, error) {
	combo = strings.TrimSpace(combo)
	if combo == "" {
		return Combo{}, fmt.Errorf("empty hotkey")
	}
	c := Combo{Raw: combo}
	seen := map[string]bool{}
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		name := strings.TrimSpace(part)
		if a, ok := aliases[name]; ok {
			name = a
		}
		if name == "" {
			return Combo{}, fmt.Errorf("hotkey %q: empty key", combo)
		}
		rc := rawcodes(name)
		if rc == nil {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", combo, name)
		}
		if seen[name] {
			return Combo{}, fmt.Errorf("hotkey %q: duplicate key %q", combo, name)
		}
		seen[name] = true
		c.Keys = append(c.Keys, Key{Name: name, Rawcodes: rc})
	}
	return c, nil
}

// Matcher tracks which keys of a combo are held. It fires once per press of
// the full combination; every key must be released before it fires again.
type Matcher struct {
	combo Combo

	mu      sync.Mutex
	pressed []bool
	fired   bool
}

// NewMatcher returns a Matcher for c.
func NewMatcher(c Combo) *Matcher {
	return &Matcher{combo: c, pressed: make([]bool, len(c.Keys))}
}

// Feed records one key event and reports whether the combo just completed.
func (m *Matcher) Feed(down bool, rawcode uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(rawcode)
	if i < 0 {
		return false
	}
	m.pressed[i] = down
	if !down {
		for _, p := range m.pressed {
			if p {
				return false
			}
		}
		m.fired = false
		return false
	}
	if m.fired {
		return false
	}
	for _, p := range m.pressed {
		if !p {
			return false
		}
	}
	m.fired = true
	return true
}

func (m *Matcher) index(rawcode uint16) int {
	for i, k := range m.combo.Keys {
		for _, rc := range k.Rawcodes {
			if rc == rawcode {
				return i
			}
		}
	}
	return -1
}
