package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestRotatingWriterNoRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debug.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 0, MaxBackups: 3})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	payload := bytes.Repeat([]byte("x"), 4096)
	for i := 0; i < 10; i++ {
		if _, err := rw.Write(payload); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
	rw.Close()

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("rotation disabled but a backup file was created")
	}
}

func TestRotatingWriterRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debug.log")

	// 1MB limit; three writes of ~600KB force two rotations.
	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 3})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	payload := bytes.Repeat([]byte("y"), 600*1024)
	for i := 0; i < 3; i++ {
		if _, err := rw.Write(payload); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
	rw.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("live log file missing after rotation: %v", err)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("backup .1 missing after rotation: %v", err)
	}
}

func TestRotatingWriterDropsOldestBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "debug.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	payload := bytes.Repeat([]byte("z"), 700*1024)
	for i := 0; i < 4; i++ {
		if _, err := rw.Write(payload); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}
	rw.Close()

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("backup .1 missing: %v", err)
	}
	if _, err := os.Stat(path + ".2"); !os.IsNotExist(err) {
		t.Error("backup .2 exists but max backups is 1")
	}
}

func TestRotatingWriterClosedWrite(t *testing.T) {
	dir := t.TempDir()
	rw, err := NewRotatingWriter(filepath.Join(dir, "debug.log"), DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	rw.Close()

	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("Write after Close should fail")
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLoggerWithRotation(dir, LevelDebug, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}

	logger.Info("hello")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	entries := readEntries(t, dir)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestNewLoggerWithRotationStderr(t *testing.T) {
	logger, err := NewLoggerWithRotation("", LevelInfo, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
