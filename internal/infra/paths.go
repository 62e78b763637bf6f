package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const AppName = "tradebot"

// GetWorkspaceDir returns the root directory for runtime data. A local
// _workspace directory wins when present, which keeps dev runs and
// portable installs self-contained; otherwise the OS data dir is used.
func GetWorkspaceDir() string {
	const local = "_workspace"
	if _, err := os.Stat(local); err == nil {
		return local
	}

	base := osDataDir()
	if base == "" {
		return local
	}
	return filepath.Join(base, AppName)
}

func osDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if d := os.Getenv("APPDATA"); d != "" {
			return d
		}
		return filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support")
	case "linux":
		if d := os.Getenv("XDG_DATA_HOME"); d != "" {
			return d
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share")
	}
	return ""
}

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// CreateLockFile claims workDir for this process. The SQLite journal is
// single-writer, so a second instance must fail fast instead of racing
// the first. Returns the release function.
func CreateLockFile(workDir string) (func(), error) {
	lockPath := filepath.Join(workDir, "instance.lock")

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("another instance is already running (lock file exists: %s)", lockPath)
		}
		return nil, err
	}
	// PID inside helps diagnose a stale lock after a crash.
	fmt.Fprintf(f, "%d", os.Getpid())
	f.Close()

	return func() { os.Remove(lockPath) }, nil
}

// ResolveConfigPath finds config.yaml: the working directory first,
// then the OS config dir. When neither exists it returns the local
// path and lets LoadConfig report the miss.
func ResolveConfigPath() string {
	localPath := filepath.Join("configs", "config.yaml")
	if _, err := os.Stat(localPath); err == nil {
		return localPath
	}

	if root, err := os.UserConfigDir(); err == nil {
		osPath := filepath.Join(root, AppName, "config.yaml")
		if _, err := os.Stat(osPath); err == nil {
			return osPath
		}
	}
	return localPath
}
