package sessionlock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrLocked is returned when another live process holds the lock.
var ErrLocked = errors.New("state directory is locked by another process")

// lockFileName is the lock file created inside the state directory.
const lockFileName = "adforge.lock"

// Info describes the process holding a lock.
type Info struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Alive reports whether the owning process is still running.
func (i Info) Alive() bool {
	return processAlive(i.PID)
}

// Guard represents a held lock. Release it when the process is done
// with the state directory.
type Guard struct {
	path string
	pid  int
}

// Path returns the location of the lock file.
func (g *Guard) Path() string {
	return g.path
}

// Acquire claims the state directory for the current process. It fails
// with ErrLocked if another live process owns it. Locks left behind by
// dead processes are reclaimed.
func Acquire(stateDir string) (*Guard, error) {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	path := filepath.Join(stateDir, lockFileName)

	// One retry: the first attempt may find a stale lock to reclaim.
	for attempt := 0; attempt < 2; attempt++ {
		err := writeExclusive(path)
		if err == nil {
			return &Guard{path: path, pid: os.Getpid()}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		info, readErr := readInfo(path)
		if readErr == nil && info.Alive() {
			return nil, fmt.Errorf("%w (pid %d, started %s)", ErrLocked, info.PID, info.StartedAt.Format(time.RFC822))
		}
		// Unreadable or owned by a dead process: reclaim it.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("remove stale lock file: %w", rmErr)
		}
	}
	return nil, fmt.Errorf("%w: lock file reappeared during reclaim", ErrLocked)
}

// Release removes the lock file if this process still owns it.
// Releasing an already released lock is a no-op.
func (g *Guard) Release() error {
	info, err := readInfo(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read lock file: %w", err)
	}
	if info.PID != g.pid {
		// Another process reclaimed the lock; leave it alone.
		return nil
	}
	if err := os.Remove(g.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

// Read returns the lock info for the state directory, or false when no
// readable lock file exists.
func Read(stateDir string) (Info, bool) {
	info, err := readInfo(filepath.Join(stateDir, lockFileName))
	if err != nil {
		return Info{}, false
	}
	return info, true
}

func writeExclusive(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	info := Info{PID: os.Getpid(), StartedAt: time.Now()}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		f.Close()
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readInfo(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, err
	}
	return info, nil
}

// processAlive probes the PID with signal 0. Permission errors mean the
// process exists but belongs to another user.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrProcessDone) {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == syscall.EPERM {
		return true
	}
	return false
}
