package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	log.Info("document generated", String("path", "/tmp/out.pdf"), Int("pages", 3))

	out := buf.String()
	for _, want := range []string{"document generated", "path=/tmp/out.pdf", "pages=3"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestSlogLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	scoped := log.With(String("component", "diff"))
	scoped.Warn("page skipped", Int("page", 2))

	out := buf.String()
	if !strings.Contains(out, "component=diff") || !strings.Contains(out, "page=2") {
		t.Errorf("scoped fields missing: %s", out)
	}
}

func TestSlogLoggerError(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	log.Error("save failed", Error("err", errors.New("disk full")))

	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("error value missing: %s", buf.String())
	}
}

func TestNewSlogLoggerNilFallsBack(t *testing.T) {
	log := NewSlogLogger(nil)
	// Must not panic and must satisfy the interface end to end.
	log.Debug("noop", Float64("ratio", 0.8))
	if _, ok := log.With(String("k", "v")).(Logger); !ok {
		t.Fatalf("With should return a Logger")
	}
}
