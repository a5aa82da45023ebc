package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	if l == nil {
		t.Fatal("expected non-nil logger")
	}

	l.Info("test message", slog.String("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}

	if entry["msg"] != "test message" {
		t.Errorf("msg = %q, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %q, want %q", entry["key"], "value")
	}
}

func TestSetup_IncludesTimeField(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("test")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output: %v", err)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("log entry should include time field")
	}
}

func TestSetup_LevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Errorf("infoログがwarnレベルで出力されている: %s", buf.String())
	}

	l.Warn("should be emitted")
	if buf.Len() == 0 {
		t.Error("warnログが出力されていない")
	}
}

func TestSetup_InvalidLevelDefaultsToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "nonsense")

	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("should be suppressed")
	if buf.Len() != 0 {
		t.Errorf("debugログがデフォルトレベルで出力されている: %s", buf.String())
	}

	l.Info("should be emitted")
	if buf.Len() == 0 {
		t.Error("infoログが出力されていない")
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Info("global test")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output: %v", err)
	}
	if entry["msg"] != "global test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "global test")
	}
}
