package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is a per-project advisory file lock. It serializes index runs across
// processes so two runs can't race on the same file's delete-then-insert. It
// does not protect a concurrent reader from observing a file mid-update.
type Lock struct {
	flock *flock.Flock
}

// NewLock creates a lock file inside the project's storage directory.
func NewLock(dir string) *Lock {
	return &Lock{flock: flock.New(filepath.Join(dir, "index.lock"))}
}

// Lock acquires the exclusive lock, blocking until it is available.
func (l *Lock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("acquire index lock: %w", err)
	}
	return nil
}

// Unlock releases the lock. Safe to call on an unlocked Lock.
func (l *Lock) Unlock() error {
	return l.flock.Unlock()
}
