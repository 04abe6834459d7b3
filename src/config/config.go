package config

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"hover-confirm/src/hotkey"
)

const (
	EnvFileEnvVar      = "HOVER_CONFIRM_ENV"
	DefaultZonesFile   = "zones.yaml"
	DefaultPointerKind = "auto"
	DefaultHotkey      = "Ctrl+Alt+H"
)

// LoadOptions carry command-line overrides; empty fields are ignored.
type LoadOptions struct {
	ZonesFileOverride   string
	PointerKindOverride string
	TraceFileOverride   string
	EnabledOverride     *bool
}

type Config struct {
	Enabled        bool
	ZonesFile      string
	Reference      image.Point
	SampleInterval time.Duration
	EnterDelay     time.Duration
	AutoHide       time.Duration
	Cooldown       time.Duration
	Continuation   time.Duration
	ScaleTTL       time.Duration
	PointerSource  string
	ActionWorkers  int
	TraceFile      string
	WatchZones     bool
	// ToggleHotkey flips Enabled; empty disables the hotkey.
	ToggleHotkey      string
	ControlServer     bool
	EnableFileLogging bool
	LogLevel          string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) .env in the executable directory
	// 2) otherwise the file named by HOVER_CONFIRM_ENV
	// Variables already set in the process environment win over the file.
	if envPath := resolveEnvPath(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	cfg := &Config{
		Enabled:           getBool("HOVER_ENABLED", true),
		ZonesFile:         getEnvWithDefault("HOVER_ZONES_FILE", DefaultZonesFile),
		Reference:         image.Pt(getPositiveInt("HOVER_REFERENCE_WIDTH", 1920), getPositiveInt("HOVER_REFERENCE_HEIGHT", 1080)),
		SampleInterval:    getMillis("HOVER_SAMPLE_INTERVAL_MS", 100),
		EnterDelay:        getMillis("HOVER_ENTER_DELAY_MS", 200),
		AutoHide:          getMillis("HOVER_AUTOHIDE_MS", 3000),
		Cooldown:          getMillis("HOVER_COOLDOWN_MS", 1000),
		Continuation:      getMillis("HOVER_CONTINUATION_MS", 300),
		ScaleTTL:          getMillis("HOVER_SCALE_TTL_MS", 1000),
		PointerSource:     resolvePointerKind(os.Getenv("HOVER_POINTER_SOURCE")),
		ActionWorkers:     getPositiveInt("HOVER_ACTION_WORKERS", 1),
		TraceFile:         strings.TrimSpace(os.Getenv("HOVER_TRACE_FILE")),
		WatchZones:        getBool("HOVER_WATCH_ZONES", true),
		ToggleHotkey:      resolveHotkey(os.Getenv("HOVER_TOGGLE_HOTKEY")),
		ControlServer:     getBool("HOVER_CONTROL_SERVER", true),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
	}

	if v := strings.TrimSpace(opts.ZonesFileOverride); v != "" {
		cfg.ZonesFile = v
	}
	if v := strings.TrimSpace(opts.PointerKindOverride); v != "" {
		cfg.PointerSource = resolvePointerKind(v)
	}
	if v := strings.TrimSpace(opts.TraceFileOverride); v != "" {
		cfg.TraceFile = v
	}
	if opts.EnabledOverride != nil {
		cfg.Enabled = *opts.EnabledOverride
	}

	if cfg.ToggleHotkey != "" {
		if _, err := hotkey.Parse(cfg.ToggleHotkey); err != nil {
			return nil, fmt.Errorf("HOVER_TOGGLE_HOTKEY: %w", err)
		}
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func resolvePointerKind(value string) string {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case "hook", "poll", "win32":
		return v
	default:
		return DefaultPointerKind
	}
}

// resolveHotkey maps "none"/"off" to no hotkey and unset to the default.
func resolveHotkey(value string) string {
	v := strings.TrimSpace(value)
	switch strings.ToLower(v) {
	case "":
		return DefaultHotkey
	case "none", "off":
		return ""
	}
	return v
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return b
}

func getPositiveInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getMillis(key string, defaultMs int) time.Duration {
	return time.Duration(getPositiveInt(key, defaultMs)) * time.Millisecond
}
