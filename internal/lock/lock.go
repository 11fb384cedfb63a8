// Package lock guards a workspace directory against concurrent use. Two
// clients sharing one sqlite cache and one log file corrupt both, so each
// workspace carries an advisory flock'd LOCK file.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// LockHeldError reports that another live process owns the workspace.
type LockHeldError struct {
	PID  int
	Path string
}

func (e *LockHeldError) Error() string {
	return fmt.Sprintf("workspace lock held by PID %d (%s)", e.PID, e.Path)
}

// Lock is a held workspace lock. Release it on shutdown.
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the exclusive lock for a workspace directory, creating the
// directory if needed. A *LockHeldError carries the owning PID when the
// lock is already taken.
func Acquire(workspaceDir string) (*Lock, error) {
	if err := os.MkdirAll(workspaceDir, 0700); err != nil {
		return nil, fmt.Errorf("create workspace dir: %w", err)
	}
	path := filepath.Join(workspaceDir, "LOCK")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		held, _ := os.ReadFile(path)
		_ = f.Close()
		return nil, &LockHeldError{PID: ownerPID(string(held)), Path: path}
	}

	if err := stampOwner(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{file: f, path: path}, nil
}

// Release drops the lock and removes its file. Nil-safe and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	// Unlink first so a crash between the two steps leaves no stale file.
	_ = os.Remove(l.path)
	err := l.file.Close()
	l.file = nil
	return err
}

// stampOwner records pid and acquisition time for LockHeldError diagnostics.
func stampOwner(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "pid=%d\ntime=%s\n",
		os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	return err
}

func ownerPID(content string) int {
	for _, line := range strings.Split(content, "\n") {
		if v, ok := strings.CutPrefix(line, "pid="); ok {
			pid, _ := strconv.Atoi(v)
			return pid
		}
	}
	return 0
}
