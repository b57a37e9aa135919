package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/voidtab/voidtab/internal/logging"
)

// StorageBackend selects the key-value storage adapter.
type StorageBackend string

const (
	BackendFile   StorageBackend = "file"
	BackendSQLite StorageBackend = "sqlite"
)

// Settings is the application's own configuration, loaded from
// settings.toml. It does not contain the user's start-page document.
type Settings struct {
	DataDir string          `mapstructure:"data_dir" toml:"data_dir"`
	Server  ServerSettings  `mapstructure:"server" toml:"server"`
	Storage StorageSettings `mapstructure:"storage" toml:"storage"`
	Logging LoggingSettings `mapstructure:"logging" toml:"logging"`
}

// ServerSettings configures the local HTTP API.
type ServerSettings struct {
	ListenAddr string `mapstructure:"listen_addr" toml:"listen_addr"`
	// Optional basic auth. AuthPasswordHash is a bcrypt hash; empty
	// AuthUser disables authentication.
	AuthUser         string `mapstructure:"auth_user" toml:"auth_user"`
	AuthPasswordHash string `mapstructure:"auth_password_hash" toml:"auth_password_hash"`
}

// StorageSettings selects and configures the storage backend.
type StorageSettings struct {
	Backend StorageBackend `mapstructure:"backend" toml:"backend"`
	// DatabasePath overrides the sqlite file location; empty means the
	// XDG data dir default.
	DatabasePath string `mapstructure:"database_path" toml:"database_path"`
}

// LoggingSettings configures the zerolog output.
type LoggingSettings struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// DefaultSettings returns the default application settings.
func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			ListenAddr: "127.0.0.1:7829",
		},
		Storage: StorageSettings{
			Backend: BackendFile,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// Manager handles settings loading, watching, and reloading.
type Manager struct {
	settings  *Settings
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Settings)
	watching  bool
}

// NewManager creates a new settings manager.
func NewManager() (*Manager, error) {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("toml")

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w\nCheck XDG_CONFIG_HOME environment variable or HOME directory", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Current directory for development

	v.SetEnvPrefix("VOIDTAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Settings), 0),
	}, nil
}

// Load loads the settings from file and environment variables.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	m.setDefaults()

	if err := m.readSettingsFile(); err != nil {
		return err
	}

	settings := &Settings{}
	if err := m.viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("failed to parse settings file at %s: %w\nCheck for syntax errors or type mismatches", m.viper.ConfigFileUsed(), err)
	}

	if err := fillDerivedPaths(settings); err != nil {
		return err
	}
	normalizeSettings(settings)

	m.settings = settings
	return nil
}

func (m *Manager) setDefaults() {
	def := DefaultSettings()
	m.viper.SetDefault("data_dir", "")
	m.viper.SetDefault("server.listen_addr", def.Server.ListenAddr)
	m.viper.SetDefault("server.auth_user", "")
	m.viper.SetDefault("server.auth_password_hash", "")
	m.viper.SetDefault("storage.backend", string(def.Storage.Backend))
	m.viper.SetDefault("storage.database_path", "")
	m.viper.SetDefault("logging.level", def.Logging.Level)
	m.viper.SetDefault("logging.format", def.Logging.Format)
}

func (m *Manager) readSettingsFile() error {
	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if createErr := m.createDefaultSettings(); createErr != nil {
				configDir, _ := GetConfigDir()
				return fmt.Errorf("failed to create default settings at %s: %w\nTry creating the directory manually or check permissions", configDir, createErr)
			}
			if rereadErr := m.viper.ReadInConfig(); rereadErr != nil {
				return fmt.Errorf("failed to read newly created settings file: %w", rereadErr)
			}
			return nil
		}
		settingsFile := m.viper.ConfigFileUsed()
		if settingsFile == "" {
			configDir, _ := GetConfigDir()
			settingsFile = filepath.Join(configDir, "settings.toml")
		}
		return fmt.Errorf("failed to read settings file at %s: %w\nCheck the file format (must be valid TOML) and permissions", settingsFile, err)
	}
	return nil
}

const defaultSettingsTOML = `# voidtab application settings.
# The start-page document itself is managed through the app, not this file.

# Directory for the document and wallpaper storage.
# Empty means the XDG data dir (~/.local/share/voidtab).
data_dir = ""

[server]
listen_addr = "127.0.0.1:7829"
# Optional basic auth for the HTTP API. Leave auth_user empty to disable.
auth_user = ""
auth_password_hash = ""

[storage]
# "file" stores each storage area as a JSON file, "sqlite" uses a single
# database file.
backend = "file"
database_path = ""

[logging]
level = "info"   # trace, debug, info, warn, error
format = "console" # console, json
`

func (m *Manager) createDefaultSettings() error {
	settingsFile, err := GetSettingsFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(settingsFile), dirPerm); err != nil {
		return err
	}
	return os.WriteFile(settingsFile, []byte(defaultSettingsTOML), filePerm)
}

func fillDerivedPaths(s *Settings) error {
	if s.DataDir == "" {
		dataDir, err := GetDataDir()
		if err != nil {
			return fmt.Errorf("failed to get data directory: %w", err)
		}
		s.DataDir = dataDir
	}
	if s.Storage.DatabasePath == "" {
		dbPath, err := GetDatabaseFile()
		if err != nil {
			return fmt.Errorf("failed to get database path: %w", err)
		}
		s.Storage.DatabasePath = dbPath
	}
	return nil
}

func normalizeSettings(s *Settings) {
	switch StorageBackend(strings.ToLower(string(s.Storage.Backend))) {
	case BackendSQLite:
		s.Storage.Backend = BackendSQLite
	default:
		s.Storage.Backend = BackendFile
	}

	switch s.Logging.Format {
	case "json", "console":
	default:
		s.Logging.Format = "console"
	}
}

// Get returns the current settings (thread-safe copy).
func (m *Manager) Get() *Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()

	settingsCopy := *m.settings
	return &settingsCopy
}

// OnChange registers a callback invoked after every reload.
func (m *Manager) OnChange(fn func(*Settings)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// Watch starts watching the settings file for changes and reloads
// automatically.
func (m *Manager) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return
	}

	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		log := logging.NewFromEnv()
		log.Debug().Str("op", e.Op.String()).Str("file", e.Name).Msg("settings change detected")

		if err := m.reload(); err != nil {
			log.Warn().Err(err).Msg("failed to reload settings")
			return
		}
		m.notifyCallbacks()
	})

	m.watching = true
}

func (m *Manager) reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	settings := &Settings{}
	if err := m.viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := fillDerivedPaths(settings); err != nil {
		return err
	}
	normalizeSettings(settings)
	m.settings = settings
	return nil
}

func (m *Manager) notifyCallbacks() {
	m.mu.RLock()
	settings := m.settings
	callbacks := make([]func(*Settings), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.mu.RUnlock()

	for _, fn := range callbacks {
		fn(settings)
	}
}
