package config

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hover-confirm/src/zones"
)

func TestLoad(t *testing.T) {
	t.Setenv("HOVER_ENABLED", "false")
	t.Setenv("HOVER_ZONES_FILE", "game.yaml")
	t.Setenv("HOVER_REFERENCE_WIDTH", "2560")
	t.Setenv("HOVER_ENTER_DELAY_MS", "150")
	t.Setenv("HOVER_AUTOHIDE_MS", "-5")
	t.Setenv("HOVER_COOLDOWN_MS", "abc")
	t.Setenv("HOVER_POINTER_SOURCE", "POLL")
	t.Setenv("ENABLE_FILE_LOGGING", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Enabled {
		t.Errorf("Expected Enabled to be false")
	}
	if cfg.ZonesFile != "game.yaml" {
		t.Errorf("Expected ZonesFile 'game.yaml', got '%s'", cfg.ZonesFile)
	}
	if cfg.Reference != image.Pt(2560, 1080) {
		t.Errorf("Expected reference 2560x1080, got %v", cfg.Reference)
	}
	if cfg.EnterDelay != 150*time.Millisecond {
		t.Errorf("Expected EnterDelay 150ms, got %v", cfg.EnterDelay)
	}
	if cfg.AutoHide != 3*time.Second {
		t.Errorf("Expected invalid AutoHide to fall back to 3s, got %v", cfg.AutoHide)
	}
	if cfg.Cooldown != time.Second {
		t.Errorf("Expected invalid Cooldown to fall back to 1s, got %v", cfg.Cooldown)
	}
	if cfg.PointerSource != "poll" {
		t.Errorf("Expected PointerSource 'poll', got '%s'", cfg.PointerSource)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true")
	}
	if cfg.ToggleHotkey != DefaultHotkey || !cfg.ControlServer {
		t.Errorf("Unexpected hotkey/control defaults: %q %v", cfg.ToggleHotkey, cfg.ControlServer)
	}
	if !cfg.WatchZones || cfg.Continuation != 300*time.Millisecond || cfg.SampleInterval != 100*time.Millisecond {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
}

func TestLoadWithOptionsOverrides(t *testing.T) {
	t.Setenv("HOVER_ZONES_FILE", "from-env.yaml")
	on := true
	t.Setenv("HOVER_ENABLED", "false")

	cfg, err := LoadWithOptions(LoadOptions{
		ZonesFileOverride:   "from-flag.yaml",
		PointerKindOverride: "bogus",
		TraceFileOverride:   "hover.trace",
		EnabledOverride:     &on,
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ZonesFile != "from-flag.yaml" || cfg.TraceFile != "hover.trace" || !cfg.Enabled {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.PointerSource != DefaultPointerKind {
		t.Errorf("unknown pointer kind should fall back to %q, got %q", DefaultPointerKind, cfg.PointerSource)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "hover.env")
	if err := os.WriteFile(envFile, []byte("HOVER_CONTINUATION_MS=450\nHOVER_TRACE_FILE=run.trace\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvFileEnvVar, envFile)
	// godotenv.Load sets process variables; clear them after the test.
	t.Setenv("HOVER_CONTINUATION_MS", "")
	t.Setenv("HOVER_TRACE_FILE", "")
	os.Unsetenv("HOVER_CONTINUATION_MS")
	os.Unsetenv("HOVER_TRACE_FILE")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Continuation != 450*time.Millisecond || cfg.TraceFile != "run.trace" {
		t.Errorf("env file not applied: %+v", cfg)
	}
}

func TestLoadToggleHotkey(t *testing.T) {
	t.Setenv("HOVER_TOGGLE_HOTKEY", "off")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ToggleHotkey != "" {
		t.Errorf("Expected hotkey disabled, got %q", cfg.ToggleHotkey)
	}

	t.Setenv("HOVER_TOGGLE_HOTKEY", "Ctrl+Shift+F9")
	if cfg, err = Load(); err != nil || cfg.ToggleHotkey != "Ctrl+Shift+F9" {
		t.Errorf("Expected custom hotkey, got %v %v", cfg, err)
	}

	t.Setenv("HOVER_TOGGLE_HOTKEY", "Ctrl+Hyper")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "HOVER_TOGGLE_HOTKEY") {
		t.Errorf("Expected invalid hotkey error, got %v", err)
	}
}

const sampleZones = `
reference: {width: 1920, height: 1080}
zones:
  - id: dialog
    action: translate-dialog
    rects:
      - {left: 0, top: 0, right: 100, bottom: 50}
      - {left: 200, top: 0, right: 300, bottom: 50}
  - id: menu
    action: translate-menu
    enabled: false
    priority: 2
    rects:
      - {left: 10, top: 10, right: 5, bottom: 20}
`

func TestParseZones(t *testing.T) {
	zf, err := ParseZones(strings.NewReader(sampleZones))
	if err != nil {
		t.Fatalf("ParseZones: %v", err)
	}
	if got := zf.ReferenceOr(image.Pt(1, 1)); got != image.Pt(1920, 1080) {
		t.Errorf("reference = %v", got)
	}

	defs := zf.Definitions()
	if len(defs) != 2 {
		t.Fatalf("got %d definitions", len(defs))
	}
	if !defs[0].Enabled || defs[0].ActionID != "translate-dialog" || len(defs[0].Rects) != 2 {
		t.Errorf("dialog = %+v", defs[0])
	}
	if defs[1].Enabled || defs[1].Priority != 2 {
		t.Errorf("menu = %+v", defs[1])
	}

	// the inverted rectangle survives parsing and is rejected by zones.Build
	zs, skipped := zones.Build(defs)
	if len(zs) != 1 || len(skipped) != 1 || skipped[0].ZoneID != "menu" {
		t.Errorf("Build = %v, skipped %v", zs, skipped)
	}
}

func TestParseZonesErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "zones:\n  - id: a\n    colour: red\n"},
		{"bad reference", "reference: {width: 0, height: 1080}\nzones: []\n"},
		{"not yaml", "zones: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseZones(strings.NewReader(tt.doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	zf, err := ParseZones(strings.NewReader(""))
	if err != nil || len(zf.Zones) != 0 {
		t.Fatalf("empty document = %+v, %v", zf, err)
	}
	if got := zf.ReferenceOr(image.Pt(800, 600)); got != image.Pt(800, 600) {
		t.Errorf("fallback reference = %v", got)
	}
}

func TestLoadZonesMissingFile(t *testing.T) {
	if _, err := LoadZones(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
