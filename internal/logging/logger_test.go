package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sitedrift/internal/config"
	"sitedrift/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from test")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.StateDir, "sitedrift.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerFormatsSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "reconcile")
	logger.Info("applied fix", logging.Args(logging.Slug("beijing"), logging.Invariant("hero-image"))...)

	line := buf.String()
	if !strings.Contains(line, "reconcile [beijing]: applied fix") {
		t.Fatalf("expected subject in line, got %q", line)
	}
	if !strings.Contains(line, "invariant=hero-image") {
		t.Fatalf("expected invariant attribute, got %q", line)
	}
	if strings.Contains(line, "component=") || strings.Contains(line, "slug=") {
		t.Fatalf("expected subject attributes to be folded into the prefix, got %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestJSONLoggerIncludesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := logging.WithRunID(context.Background(), "run-123")
	logging.WithContext(ctx, logger).Info("check complete", logging.Args(logging.Int("failures", 2))...)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log line: %v (%q)", err, buf.String())
	}
	if payload["run_id"] != "run-123" {
		t.Fatalf("expected run_id, got %#v", payload)
	}
	if payload["msg"] != "check complete" || payload["level"] != "info" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	if payload["failures"] != float64(2) {
		t.Fatalf("unexpected failures field: %#v", payload["failures"])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logging.WarnWithContext(logger, "notification failed", "notify_failed")
	line := buf.String()
	for _, want := range []string{"event_type=notify_failed", "error_hint=", "impact="} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}
