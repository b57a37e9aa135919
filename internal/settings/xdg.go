// Package settings manages voidtab's own application settings (data
// directory, listen address, storage backend, logging) as a TOML file under
// the XDG config directory. The user's start-page document lives elsewhere,
// behind the storage port.
package settings

import (
	"os"
	"path/filepath"
)

const (
	appName      = "voidtab"
	databaseName = "voidtab.sqlite"

	dirPerm  = 0o755
	filePerm = 0o644
)

// XDGDirs holds the per-application base directories:
// $XDG_CONFIG_HOME/voidtab, $XDG_DATA_HOME/voidtab, $XDG_STATE_HOME/voidtab,
// with the usual ~/.config, ~/.local/share and ~/.local/state fallbacks.
type XDGDirs struct {
	ConfigHome string
	DataHome   string
	StateHome  string
}

// GetXDGDirs resolves the application directories. ENV=dev collapses all
// three into ./.dev/voidtab so development runs never touch the real ones.
func GetXDGDirs() (*XDGDirs, error) {
	if os.Getenv("ENV") == "dev" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		devDir := filepath.Join(cwd, ".dev", appName)
		return &XDGDirs{ConfigHome: devDir, DataHome: devDir, StateHome: devDir}, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	resolve := func(envVar string, fallback ...string) string {
		base := os.Getenv(envVar)
		if base == "" {
			base = filepath.Join(append([]string{homeDir}, fallback...)...)
		}
		return filepath.Join(base, appName)
	}

	return &XDGDirs{
		ConfigHome: resolve("XDG_CONFIG_HOME", ".config"),
		DataHome:   resolve("XDG_DATA_HOME", ".local", "share"),
		StateHome:  resolve("XDG_STATE_HOME", ".local", "state"),
	}, nil
}

// GetConfigDir returns the directory holding settings.toml.
func GetConfigDir() (string, error) {
	dirs, err := GetXDGDirs()
	if err != nil {
		return "", err
	}
	return dirs.ConfigHome, nil
}

// GetDataDir returns the directory for user data: the start-page document
// and wallpaper blobs.
func GetDataDir() (string, error) {
	dirs, err := GetXDGDirs()
	if err != nil {
		return "", err
	}
	return dirs.DataHome, nil
}

// GetStateDir returns the directory for disposable state such as log files.
func GetStateDir() (string, error) {
	dirs, err := GetXDGDirs()
	if err != nil {
		return "", err
	}
	return dirs.StateHome, nil
}

// GetSettingsFile returns the path of the application settings file.
func GetSettingsFile() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "settings.toml"), nil
}

// GetDatabaseFile returns the sqlite storage path. It holds user data and
// therefore lives in the data dir, not the state dir.
func GetDatabaseFile() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, databaseName), nil
}

// EnsureDirectories creates the config, data and state directories.
func EnsureDirectories() error {
	dirs, err := GetXDGDirs()
	if err != nil {
		return err
	}
	for _, dir := range []string{dirs.ConfigHome, dirs.DataHome, dirs.StateHome} {
		if err := os.MkdirAll(dir, dirPerm); err != nil {
			return err
		}
	}
	return nil
}
