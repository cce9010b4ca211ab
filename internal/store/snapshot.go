package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/pipeline"
)

// SnapshotFileName is the name of the durable session snapshot file
// inside the state directory.
const SnapshotFileName = "session.json"

// snapshotEnvelope is the on-disk format. The version field allows the
// format to evolve without silently misreading old files.
type snapshotEnvelope struct {
	Version int               `json:"version"`
	SavedAt time.Time         `json:"saved_at"`
	Session *pipeline.Session `json:"session"`
}

const snapshotVersion = 1

// Info summarizes a persisted snapshot without exposing the full session.
type Info struct {
	SessionID string
	Status    pipeline.Stage
	SavedAt   time.Time
}

// Snapshot persists the current session to a single JSON file so an
// interrupted run can be resumed. Writes are atomic: the file on disk is
// always either the previous snapshot or the new one, never a partial.
type Snapshot struct {
	mu   sync.Mutex
	path string
}

// NewSnapshot creates a Snapshot rooted at the given state directory.
func NewSnapshot(stateDir string) *Snapshot {
	return &Snapshot{path: filepath.Join(stateDir, SnapshotFileName)}
}

// Path returns the snapshot file path.
func (s *Snapshot) Path() string {
	return s.path
}

// Save persists the session using an atomic write.
func (s *Snapshot) Save(sess *pipeline.Session) error {
	if sess == nil {
		return errors.New("cannot snapshot nil session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	env := snapshotEnvelope{
		Version: snapshotVersion,
		SavedAt: time.Now().UTC(),
		Session: sess,
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	return atomicWriteFile(s.path, data, 0644)
}

// Load reads the persisted session. It returns ErrNoActiveSession when no
// snapshot exists and ErrSessionCorrupted when the file cannot be parsed.
func (s *Snapshot) Load() (*pipeline.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return env.Session, nil
}

// LoadInfo reads just the snapshot summary.
func (s *Snapshot) LoadInfo() (*Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	return &Info{
		SessionID: env.Session.ID,
		Status:    env.Session.Status,
		SavedAt:   env.SavedAt,
	}, nil
}

func (s *Snapshot) loadLocked() (*snapshotEnvelope, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrapf(errors.ErrSessionCorrupted, "snapshot %s", s.path)
	}
	if env.Session == nil || env.Session.ID == "" {
		return nil, errors.Wrapf(errors.ErrSessionCorrupted, "snapshot %s has no session", s.path)
	}
	return &env, nil
}

// Remove deletes the snapshot file. Removing a snapshot that does not
// exist is not an error.
func (s *Snapshot) Remove() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove snapshot: %w", err)
	}
	return nil
}

// Exists reports whether a snapshot file is present.
func (s *Snapshot) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	return err == nil
}

// atomicWriteFile writes data to path via a temp file and rename so the
// destination never holds a partial write.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
