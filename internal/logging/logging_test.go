package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "op", "list projects")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, `op="list projects"`) {
		t.Errorf("Unexpected output %q", out)
	}

	if _, err := New(&buf, "chatty"); err == nil {
		t.Error("Expected error for unknown level")
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "sphere.log")
	logger, closer, err := OpenFile(path, "debug")
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	logger.Debug("api request", "status", 200)
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Read log failed: %v", err)
	}
	if !strings.Contains(string(data), "api request") {
		t.Errorf("Expected log line, got %q", data)
	}
}
