package trace

import (
	"context"
	"log/slog"
)

// SlogRecorder writes events to an slog.Logger at debug level.
type SlogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder returns a recorder for logger (slog.Default when nil).
func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogRecorder{logger: logger}
}

func (s *SlogRecorder) Record(e Event) {
	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.Uint64("epoch", e.Epoch),
	}
	if e.ZoneID != "" {
		attrs = append(attrs, slog.String("zone", e.ZoneID))
	}
	if e.ActionID != "" {
		attrs = append(attrs, slog.String("action", e.ActionID))
	}
	if e.Rect != nil {
		attrs = append(attrs, slog.Any("rect", e.Rect.Rectangle()))
	}
	if e.Timer != "" {
		attrs = append(attrs, slog.String("timer", e.Timer))
	}
	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, "hover trace", attrs...)
}
