package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/gofrs/flock"

	"github.com/ynput/ayon-jira/internal/api"
	"github.com/ynput/ayon-jira/pkg/logging"
)

var unsafeLockChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ScopeLocker serializes runs that touch the same (project, scope, template)
// through exclusive lock files, across processes.
type ScopeLocker struct {
	dir string
}

// NewScopeLocker creates a locker that keeps its lock files in dir.
func NewScopeLocker(dir string) *ScopeLocker {
	return &ScopeLocker{dir: dir}
}

// LockPath returns the lock file of one scope.
func (l *ScopeLocker) LockPath(project, scopeKey, templateName string) string {
	name := fmt.Sprintf("%s__%s__%s.lock",
		unsafeLockChars.ReplaceAllString(project, "_"),
		unsafeLockChars.ReplaceAllString(scopeKey, "_"),
		unsafeLockChars.ReplaceAllString(templateName, "_"))
	return filepath.Join(l.dir, name)
}

// Acquire takes the locks of every scope without blocking. Scopes are locked
// in sorted order. When any lock is held elsewhere, the locks taken so far are
// released and *api.LockedError is returned. The returned release function
// unlocks everything.
func (l *ScopeLocker) Acquire(project, templateName string, scopes []string) (func(), error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory %s: %w", l.dir, err)
	}

	sorted := append([]string(nil), scopes...)
	sort.Strings(sorted)

	var held []*flock.Flock
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Unlock(); err != nil {
				logging.Warn("Orchestrator", "Failed to release lock %s: %v", held[i].Path(), err)
			}
		}
	}

	for _, key := range sorted {
		lock := flock.New(l.LockPath(project, key, templateName))
		ok, err := lock.TryLock()
		if err != nil {
			release()
			return nil, fmt.Errorf("failed to lock scope %s: %w", key, err)
		}
		if !ok {
			release()
			return nil, &api.LockedError{Scope: key}
		}
		logging.Debug("Orchestrator", "Locked scope %s (%s)", key, lock.Path())
		held = append(held, lock)
	}

	return release, nil
}
