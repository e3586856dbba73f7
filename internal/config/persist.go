package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"pebble/internal/domain"
)

const (
	configDirName    = "pebble"
	projectConfigDir = ".pebble"
	configFileName   = "config.yaml"
)

// For mocking in tests
var (
	osUserConfigDir = os.UserConfigDir
	osUserCacheDir  = os.UserCacheDir
	osGetwd         = os.Getwd
)

var getUserConfigPath = func() (string, error) {
	if dir, ok := osLookupEnv(EnvConfigDir); ok && dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	base, err := osUserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

func ConfigPath() (string, error) {
	return getUserConfigPath()
}

// LoadConfig layers the defaults, the user file, the project file and the
// environment, in that order.
func LoadConfig() (Config, error) {
	config := DefaultConfig()
	for _, locate := range []func() (string, error){getUserConfigPath, getProjectConfigPath} {
		path, err := locate()
		if err != nil {
			continue
		}
		stored, err := loadConfigFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return config, fmt.Errorf("load config %s: %w", path, err)
		}
		config = mergeConfig(config, stored)
	}
	config = applyEnv(config)
	if config.LogDir == "" {
		config.LogDir = DefaultLogDir()
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func loadConfigFile(path string) (fileConfig, error) {
	var stored fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return stored, err
	}
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return stored, err
	}
	return stored, nil
}

// SaveConnections rewrites the connection list of the user file, keeping
// every other setting in it. Passwords are never written.
func SaveConnections(connections []domain.Connection) error {
	path, err := getUserConfigPath()
	if err != nil {
		return err
	}
	stored, err := loadConfigFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	stored.Connections = connections
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(&stored)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeConfig(base Config, stored fileConfig) Config {
	merged := base
	if stored.Theme != nil {
		merged.Theme = *stored.Theme
	}
	if stored.LogLevel != nil {
		merged.LogLevel = *stored.LogLevel
	}
	if stored.LogDir != nil {
		merged.LogDir = *stored.LogDir
	}
	if stored.MaxLogFiles != nil {
		merged.MaxLogFiles = *stored.MaxLogFiles
	}
	if stored.ShowHidden != nil {
		merged.ShowHidden = *stored.ShowHidden
	}
	if stored.CacheTTL != nil {
		merged.CacheTTL = *stored.CacheTTL
	}
	if stored.Defaults != nil {
		if stored.Defaults.Name != "" {
			merged.Defaults.Name = stored.Defaults.Name
		}
		if stored.Defaults.Server != "" {
			merged.Defaults.Server = stored.Defaults.Server
		}
		if stored.Defaults.Username != "" {
			merged.Defaults.Username = stored.Defaults.Username
		}
	}
	if stored.Connections != nil {
		merged.Connections = mergeConnections(merged.Connections, stored.Connections)
	}
	if stored.KeyBindings != nil {
		bindings := make(map[string]string, len(merged.KeyBindings)+len(stored.KeyBindings))
		for action, key := range merged.KeyBindings {
			bindings[action] = key
		}
		for action, key := range stored.KeyBindings {
			bindings[action] = key
		}
		merged.KeyBindings = bindings
	}
	return merged
}

// mergeConnections appends overlay connections, replacing those with the
// same id in place.
func mergeConnections(base, overlay []domain.Connection) []domain.Connection {
	merged := append([]domain.Connection(nil), base...)
	index := make(map[string]int, len(merged))
	for i, conn := range merged {
		index[conn.ID()] = i
	}
	for _, conn := range overlay {
		if i, ok := index[conn.ID()]; ok {
			merged[i] = conn
			continue
		}
		index[conn.ID()] = len(merged)
		merged = append(merged, conn)
	}
	return merged
}

// DefaultLogDir is the log directory used when the config names none.
func DefaultLogDir() string {
	base, err := osUserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), configDirName, "logs")
	}
	return filepath.Join(base, configDirName, "logs")
}
