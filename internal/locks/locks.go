// Package locks is the client side of the completion-lock contract:
// one filesystem marker per active lock, keyed by name, that other
// processes poll to wait for a session's completion.
//
// The marker's lifetime is bounded by its session's lifetime. For plain
// commands the wrapped shell removes it on exit; an explicit kill removes
// it from here. Marker creation across concurrent processes is serialized
// with an advisory flock on a guard file, so collision renaming
// (key, key-2, key-3, ...) never races.
package locks

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gofrs/flock"
)

// lockKeyPrefix namespaces session completion locks.
const lockKeyPrefix = "pw-"

// maxRenameAttempts bounds collision probing before giving up.
const maxRenameAttempts = 1000

// Lock is an acquired completion lock.
type Lock struct {
	// Key is the actual lock name used, after any collision rename.
	Key string `json:"key"`
	// Path is the filesystem marker backing the lock.
	Path string `json:"path"`
}

// Manager creates and releases lock markers inside one directory.
type Manager struct {
	dir string
}

// DefaultDir returns the lock directory: $XDG_RUNTIME_DIR/pane-wrangler/locks,
// falling back to a per-uid directory under the system temp dir.
func DefaultDir() string {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return filepath.Join(runtimeDir, "pane-wrangler", "locks")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("pane-wrangler-%d", os.Getuid()), "locks")
}

// NewManager creates a manager rooted at dir. An empty dir uses DefaultDir.
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = DefaultDir()
	}
	return &Manager{dir: dir}
}

// Dir returns the lock directory.
func (m *Manager) Dir() string {
	return m.dir
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// KeyFor derives the lock key for a session name: the fixed namespace
// prefix plus the name with unsafe characters replaced. A nested agent
// that inherits the session name derives the same key.
func KeyFor(sessionName string) string {
	sanitized := unsafeKeyChars.ReplaceAllString(sessionName, "-")
	return lockKeyPrefix + sanitized
}

// PathFor returns the marker path a given key resolves to.
func (m *Manager) PathFor(key string) string {
	return filepath.Join(m.dir, key+".lock")
}

// Acquire creates a marker for key, renaming on collision (key, key-2, ...)
// and returning the lock actually taken. The marker records the owning pid
// and acquisition time for operators inspecting the directory.
func (m *Manager) Acquire(key string) (Lock, error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return Lock{}, fmt.Errorf("create lock dir: %w", err)
	}

	// Serialize marker creation across processes so two acquirers never
	// settle on the same renamed key.
	guard := flock.New(filepath.Join(m.dir, ".guard"))
	if err := guard.Lock(); err != nil {
		return Lock{}, fmt.Errorf("lock guard: %w", err)
	}
	defer guard.Unlock()

	for attempt := 1; attempt <= maxRenameAttempts; attempt++ {
		candidate := key
		if attempt > 1 {
			candidate = fmt.Sprintf("%s-%d", key, attempt)
		}
		path := m.PathFor(candidate)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return Lock{}, fmt.Errorf("create lock marker %s: %w", path, err)
		}
		fmt.Fprintf(f, "pid=%d\nacquired=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
		if err := f.Close(); err != nil {
			return Lock{}, fmt.Errorf("write lock marker %s: %w", path, err)
		}
		return Lock{Key: candidate, Path: path}, nil
	}
	return Lock{}, fmt.Errorf("no free lock name for %q after %d attempts", key, maxRenameAttempts)
}

// Release removes a lock marker. Releasing an already-released lock is
// not an error; the bool reports whether the marker still existed.
func (m *Manager) Release(l Lock) (bool, error) {
	if l.Path == "" {
		return false, nil
	}
	err := os.Remove(l.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove lock marker %s: %w", l.Path, err)
	}
	return true, nil
}

// ReleaseByKey removes the marker for key, if present.
func (m *Manager) ReleaseByKey(key string) (bool, error) {
	return m.Release(Lock{Key: key, Path: m.PathFor(key)})
}

// Held reports whether a marker exists for key.
func (m *Manager) Held(key string) bool {
	_, err := os.Stat(m.PathFor(key))
	return err == nil
}
