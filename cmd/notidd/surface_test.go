package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/notid/internal/daemon"
	"github.com/jmylchreest/notid/internal/model"
	"github.com/jmylchreest/notid/internal/popup"
)

func TestSurfaceLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newSurfaceLogger(logger)

	n := &model.Notification{ID: 5, AppName: "mail", Summary: "hello"}
	frame := daemon.Frame{
		Entries: []daemon.FrameEntry{{Notification: n, Phase: popup.PhaseSlideIn, Progress: 0.5}},
		Height:  96,
	}

	s.frame(frame)
	s.frame(frame)
	s.frame(daemon.Frame{})

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "msg=popup "))
	assert.Contains(t, out, "summary=hello")
	assert.Contains(t, out, "visible=true")
	assert.Contains(t, out, "visible=false")
}
