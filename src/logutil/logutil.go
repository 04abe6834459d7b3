package logutil

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	logFileName  = "hover_confirm.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Options controls Setup.
type Options struct {
	// EnableFile writes to hover_confirm.log in Dir with size-based rotation.
	EnableFile bool
	Dir        string
	Level      string
	// Quiet discards everything when file logging is off (keeps CLI output clean).
	Quiet bool
}

// Setup installs the default slog logger and routes the standard log package
// through it. It returns a close func for the log file.
func Setup(opts Options) func() {
	level := ParseLevel(opts.Level)
	var out io.Writer = os.Stderr
	closer := func() {}

	switch {
	case opts.EnableFile:
		w, err := newRotatingWriter(filepath.Join(opts.Dir, logFileName))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			break
		}
		out = w
		closer = func() { _ = w.Close() }
	case opts.Quiet:
		out = io.Discard
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}))
	slog.SetDefault(logger)
	return closer
}

// ParseLevel maps debug|info|warn|error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func newRotatingWriter(path string) (*rotatingWriter, error) {
	rotateIfNeeded(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	// naive rotation check per write
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotate(w.path)
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

func rotateIfNeeded(path string) {
	if st, err := os.Stat(path); err == nil && st.Size() > maxSizeBytes {
		rotate(path)
	}
}

// rotate shifts path -> .1 -> .2 -> .3; the oldest archive is discarded.
func rotate(path string) {
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string { return fmt.Sprintf("%s.%d", path, n) }
