package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "leadline.log")

	logger, err := New(path, "acme")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("request done")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"workspace":"acme"`) {
		t.Errorf("log line missing workspace field: %s", line)
	}
	if !strings.Contains(line, "request done") {
		t.Errorf("log line missing message: %s", line)
	}
}

func TestFileOnlySkipsStderr(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leadline.log")

	logger, err := FileOnly(path, "acme")
	if err != nil {
		t.Fatalf("FileOnly() error = %v", err)
	}
	logger.Warn("terminal owned by tui")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "terminal owned by tui") {
		t.Errorf("log file missing entry: %s", data)
	}
}
