package config

import (
	"os"
	"path/filepath"
)

const appDir = "palabra"

// DefaultDataDir picks where the subscriber store and broadcast journal live
// when no data dir is configured. Order: $XDG_DATA_HOME/palabra,
// /var/lib/palabra when /var/lib is writable, the per-OS application data
// directory, then ~/.palabra. Without a home directory it falls back to ./data.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}
	if isWritableDir("/var/lib") {
		return filepath.Join("/var/lib", appDir)
	}
	for _, candidate := range []string{
		filepath.Join(home, "Library", "Application Support"), // macOS
		filepath.Join(home, "AppData", "Local"),               // Windows
	} {
		if isDir(candidate) {
			return filepath.Join(candidate, "Palabra")
		}
	}
	return filepath.Join(home, "."+appDir)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isWritableDir(path string) bool {
	if !isDir(path) {
		return false
	}
	f, err := os.CreateTemp(path, ".palabra-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}
