package logging

import (
	"path/filepath"
	"testing"
)

func TestDefaultOptionsShape(t *testing.T) {
	opts := DefaultOptions()
	if opts.Level != InfoLevel {
		t.Errorf("Level = %v, want InfoLevel", opts.Level)
	}
	if opts.LogFile == "" {
		t.Errorf("expected a non-empty default LogFile")
	}
	if opts.MaxSizeMB <= 0 || opts.MaxBackups <= 0 || opts.MaxAgeDays <= 0 {
		t.Errorf("expected positive rotation settings, got %+v", opts)
	}
}

func TestNewBuildsAWorkingLogger(t *testing.T) {
	opts := DefaultOptions()
	opts.LogFile = filepath.Join(t.TempDir(), "pulsecore.log")

	log := New(opts)
	if log == nil {
		t.Fatalf("New returned nil")
	}

	// Must not panic for any level.
	log.Infof("starting up %s", "sim")
	log.Debugf("counter=%d", 42)
	log.Warnf("overrun detected")
	log.Errorf("dispatch failed: %v", errBoom)
	log.Sync()
}

func TestNewWithoutLogFileOnlyLogsToConsole(t *testing.T) {
	opts := DefaultOptions()
	opts.LogFile = ""

	log := New(opts)
	log.Infof("console only")
	log.Sync()
}

func TestZeroValueLoggerMethodsAreSafe(t *testing.T) {
	var log *Logger
	// A nil *Logger must never be constructed by New, but every method
	// guards against a nil z so a zero-value Logger{} is always safe too.
	log = &Logger{}
	log.Infof("noop")
	log.Debugf("noop")
	log.Warnf("noop")
	log.Errorf("noop")
	log.Sync()
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
