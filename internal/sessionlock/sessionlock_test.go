package sessionlock

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeLockFile(t *testing.T, stateDir string, content []byte) {
	t.Helper()
	path := filepath.Join(stateDir, lockFileName)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write lock file: %v", err)
	}
}

func TestAcquireCreatesLockFile(t *testing.T) {
	dir := t.TempDir()

	guard, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer guard.Release() //nolint:errcheck

	if guard.Path() != filepath.Join(dir, lockFileName) {
		t.Errorf("Path() = %q, want %q", guard.Path(), filepath.Join(dir, lockFileName))
	}

	info, ok := Read(dir)
	if !ok {
		t.Fatal("Read() returned false after Acquire")
	}
	if info.PID != os.Getpid() {
		t.Errorf("lock PID = %d, want %d", info.PID, os.Getpid())
	}
	if !info.Alive() {
		t.Error("Alive() = false for the current process")
	}
	if time.Since(info.StartedAt) > time.Minute {
		t.Errorf("StartedAt = %v, want recent", info.StartedAt)
	}
}

func TestAcquireCreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	guard, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer guard.Release() //nolint:errcheck

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("state directory not created: %v", err)
	}
}

func TestAcquireConflict(t *testing.T) {
	dir := t.TempDir()

	guard, err := Acquire(dir)
	if err != nil {
		t.Fatalf("first Acquire() error: %v", err)
	}
	defer guard.Release() //nolint:errcheck

	_, err = Acquire(dir)
	if !errors.Is(err, ErrLocked) {
		t.Errorf("second Acquire() error = %v, want %v", err, ErrLocked)
	}
}

func TestAcquireReclaimsStaleLock(t *testing.T) {
	deadPID := 1 << 30 // far above any real pid range

	tests := []struct {
		name    string
		content []byte
	}{
		{
			name:    "dead process",
			content: mustMarshal(t, Info{PID: deadPID, StartedAt: time.Now().Add(-time.Hour)}),
		},
		{
			name:    "corrupt lock file",
			content: []byte("not json"),
		},
		{
			name:    "zero pid",
			content: mustMarshal(t, Info{PID: 0, StartedAt: time.Now()}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeLockFile(t, dir, tt.content)

			guard, err := Acquire(dir)
			if err != nil {
				t.Fatalf("Acquire() error = %v, want reclaim", err)
			}
			defer guard.Release() //nolint:errcheck

			info, ok := Read(dir)
			if !ok {
				t.Fatal("Read() returned false after reclaim")
			}
			if info.PID != os.Getpid() {
				t.Errorf("lock PID = %d, want %d", info.PID, os.Getpid())
			}
		})
	}
}

func TestRelease(t *testing.T) {
	dir := t.TempDir()

	guard, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	if err := guard.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if _, ok := Read(dir); ok {
		t.Error("lock file still present after Release")
	}

	// Releasing again is a no-op.
	if err := guard.Release(); err != nil {
		t.Errorf("second Release() error: %v", err)
	}
}

func TestReleaseLeavesReclaimedLock(t *testing.T) {
	dir := t.TempDir()

	guard, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}

	// Simulate another process reclaiming the lock.
	other := Info{PID: os.Getpid() + 1, StartedAt: time.Now()}
	writeLockFile(t, dir, mustMarshal(t, other))

	if err := guard.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}

	info, ok := Read(dir)
	if !ok {
		t.Fatal("reclaimed lock file was removed by Release")
	}
	if info.PID != other.PID {
		t.Errorf("lock PID = %d, want %d", info.PID, other.PID)
	}
}

func TestReadMissing(t *testing.T) {
	if _, ok := Read(t.TempDir()); ok {
		t.Error("Read() = true for a directory with no lock file")
	}
}

func TestProcessAlive(t *testing.T) {
	tests := []struct {
		name string
		pid  int
		want bool
	}{
		{name: "current process", pid: os.Getpid(), want: true},
		{name: "zero pid", pid: 0, want: false},
		{name: "negative pid", pid: -1, want: false},
		{name: "out of range pid", pid: 1 << 30, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := processAlive(tt.pid); got != tt.want {
				t.Errorf("processAlive(%d) = %v, want %v", tt.pid, got, tt.want)
			}
		})
	}
}

func mustMarshal(t *testing.T, info Info) []byte {
	t.Helper()
	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal lock info: %v", err)
	}
	return data
}
