package main

import (
	"log/slog"

	"github.com/jmylchreest/notid/internal/daemon"
)

// surfaceLogger reports popup surface changes. It stands in for a renderer and only
// logs when the set of shown notifications or the surface visibility changes.
type surfaceLogger struct {
	logger  *slog.Logger
	visible bool
	shown   map[uint32]bool
}

func newSurfaceLogger(logger *slog.Logger) *surfaceLogger {
	return &surfaceLogger{logger: logger, shown: make(map[uint32]bool)}
}

func (s *surfaceLogger) frame(f daemon.Frame) {
	visible := f.Height > 0
	if visible != s.visible {
		s.visible = visible
		s.logger.Debug("popup surface", "visible", visible, "height", f.Height)
	}

	current := make(map[uint32]bool, len(f.Entries))
	for _, e := range f.Entries {
		id := e.Notification.ID
		current[id] = true
		if !s.shown[id] {
			s.logger.Info("popup", "id", id, "app", e.Notification.AppName, "summary", e.Notification.Summary)
		}
	}
	s.shown = current
}
