package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetLoggerNilRestoresNoop(t *testing.T) {
	SetLogger(nil)
	// Must not panic.
	Log().Info("ignored")
}

func TestSlogLoggerEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Info("order placed", Field{Key: "exchange", Value: "binance"})
	out := buf.String()
	if !strings.Contains(out, "order placed") || !strings.Contains(out, "exchange=binance") {
		t.Fatalf("unexpected log output: %s", out)
	}

	buf.Reset()
	logger.Debug("detail", Field{Key: "k", Value: 1})
	if !strings.Contains(buf.String(), "detail") {
		t.Fatalf("expected debug output, got %s", buf.String())
	}
}
