package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"visionpipe/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleHandlerPromotesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	NewComponentLogger(logger, "dispatcher").Info("change received", String(FieldDocumentID, "doc-1"))

	line := buf.String()
	if !strings.Contains(line, "dispatcher: change received") {
		t.Fatalf("component not promoted into prefix: %q", line)
	}
	if !strings.Contains(line, "document_id=doc-1") {
		t.Fatalf("attribute missing: %q", line)
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("msg", String("reason", "has changed"))
	if !strings.Contains(buf.String(), `reason="has changed"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestWithContextDerivesFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithStage(services.WithDocumentID(context.Background(), "vid-42"), "extractor")
	WithContext(ctx, logger).Info("stage started")

	line := buf.String()
	if !strings.Contains(line, "document_id=vid-42") || !strings.Contains(line, "stage=extractor") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled")
	}
}
