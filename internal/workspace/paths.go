package workspace

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.leadline.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".leadline")
}

// Dir returns the workspace-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "workspaces", name)
}

// LockPath returns the lock file path for a workspace.
func LockPath(name string) string {
	return filepath.Join(Dir(name), "LOCK")
}

// DBPath returns the leadline.db cache path.
func DBPath(name string) string {
	return filepath.Join(Dir(name), "leadline.db")
}

// LogDir returns the log directory for a workspace.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the app log file path.
func LogPath(name string) string {
	return filepath.Join(LogDir(name), "leadline.log")
}

// AttachmentDir returns the staging dir for queued attachments.
func AttachmentDir(name string) string {
	return filepath.Join(Dir(name), "attachments")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// EnsureDir creates the workspace directory tree with proper permissions.
func EnsureDir(name string) error {
	dirs := []string{
		Dir(name),
		LogDir(name),
		AttachmentDir(name),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
