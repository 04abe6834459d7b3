package hotkey

import (
	"testing"
)

func TestRawcodes(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		// Modifier keys
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"cmd", []uint16{91, 92}},

		// Letter keys
		{"a", []uint16{65}},
		{"h", []uint16{72}},
		{"z", []uint16{90}},

		// Number keys
		{"0", []uint16{48}},
		{"9", []uint16{57}},

		// Function keys
		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},
		{"f25", nil},
		{"f01", nil},

		// Special keys
		{"space", []uint16{32}},
		{"enter", []uint16{13}},
		{"esc", []uint16{27}},

		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			result := rawcodes(tt.keyName)
			if len(result) != len(tt.expected) {
				t.Errorf("rawcodes(%q) returned %d rawcodes, expected %d",
					tt.keyName, len(result), len(tt.expected))
				return
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("rawcodes(%q)[%d] = %d, expected %d",
						tt.keyName, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Ctrl+Alt+H", []string{"ctrl", "alt", "h"}},
		{"Ctrl+Shift+O", []string{"ctrl", "shift", "o"}},
		{"Alt+F4", []string{"alt", "f4"}},
		{"Ctrl+Win+E", []string{"ctrl", "cmd", "e"}},
		{"Super+Alt+T", []string{"cmd", "alt", "t"}},
		{" control + escape ", []string{"ctrl", "esc"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}
			if len(c.Keys) != len(tt.expected) {
				t.Fatalf("Parse(%q) returned %d keys, expected %d", tt.input, len(c.Keys), len(tt.expected))
			}
			for i, k := range c.Keys {
				if k.Name != tt.expected[i] {
					t.Errorf("Parse(%q)[%d] = %q, expected %q", tt.input, i, k.Name, tt.expected[i])
				}
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "Ctrl+", "Ctrl+Ctrl+H", "Ctrl+Hyper"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded", in)
		}
	}
}

func TestMatcher(t *testing.T) {
	c, err := Parse("Ctrl+Alt+H")
	if err != nil {
		t.Fatal(err)
	}
	m := NewMatcher(c)

	if m.Feed(true, 162) || m.Feed(true, 165) {
		t.Fatal("fired before the combo was complete")
	}
	if m.Feed(true, 30) {
		t.Fatal("unrelated key fired")
	}
	if !m.Feed(true, 72) {
		t.Fatal("combo not detected")
	}
	// key repeat while held
	if m.Feed(true, 72) {
		t.Fatal("fired again while held")
	}

	// releasing only H is not enough to re-arm
	m.Feed(false, 72)
	if m.Feed(true, 72) {
		t.Fatal("fired without a full release")
	}

	for _, rc := range []uint16{72, 165, 162} {
		m.Feed(false, rc)
	}
	m.Feed(true, 163)
	m.Feed(true, 164)
	if !m.Feed(true, 72) {
		t.Fatal("combo with right-hand modifiers not detected")
	}
}
