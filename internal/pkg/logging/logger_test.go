package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewLoggerCreatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "courseshop.log")
	t.Setenv("LOG_FILE", path)

	logger, err := NewLogger("courseshop", "test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("hello")
	_ = logger.Sync()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file to exist: %v", err)
	}
}
