package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/xraph/faktura/cmd/faktura/internal/logger"
)

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.InfoLevel)
	l := logger.NewSlog(zl).With("tenant_id", "acme").WithGroup("sweep")

	l.Debug("hidden")
	l.Info("overdue sweep finished",
		"checked", 3,
		"took", 2*time.Second,
		"error", errors.New("boom"),
		slog.Group("result", "transitioned", 1),
	)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %s", len(lines), buf.String())
	}

	var got map[string]any
	if err := json.Unmarshal(lines[0], &got); err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"level":                     "info",
		"message":                   "overdue sweep finished",
		"tenant_id":                 "acme",
		"sweep.checked":             float64(3),
		"sweep.error":               "boom",
		"sweep.result.transitioned": float64(1),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %v, want %v", k, got[k], v)
		}
	}
	if _, ok := got["sweep.took"]; !ok {
		t.Errorf("duration missing: %v", got)
	}
}

func TestSlogHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	h := logger.NewSlogHandler(zerolog.New(&buf).Level(zerolog.WarnLevel))

	tests := []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelDebug, false},
		{slog.LevelInfo, false},
		{slog.LevelWarn, true},
		{slog.LevelError, true},
	}
	for _, tt := range tests {
		if got := h.Enabled(t.Context(), tt.level); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.level, got, tt.want)
		}
	}
}
