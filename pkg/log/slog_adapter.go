package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes events to an slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates an adapter logging at Info level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelInfo}
}

// WithLevel returns a copy logging at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event. Error events are always logged at Warn or above.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
		slog.String("op", event.Op),
	}

	if event.Zones != 0 {
		attrs = append(attrs, slog.String("zones", event.Zones.String()))
	}
	if event.Category == CategoryZone {
		attrs = append(attrs, slog.Int("registers", int(event.Registers)))
	}
	if event.Cycle != "" {
		attrs = append(attrs, slog.String("cycle", event.Cycle))
	}
	if event.RunID != "" {
		attrs = append(attrs, slog.String("run_id", event.RunID))
	}
	if event.Detail != "" {
		attrs = append(attrs, slog.String("detail", event.Detail))
	}

	level := a.level
	if event.Category == CategoryError && level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, "event", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
