package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pebble/internal/domain"
)

// isolate points every config location into a temp dir and clears the
// environment overrides.
func isolate(t *testing.T) (userPath, projectPath string) {
	t.Helper()
	dir := t.TempDir()
	userPath = filepath.Join(dir, "user", configDirName, configFileName)
	projectPath = filepath.Join(dir, "project", projectConfigDir, configFileName)

	originalUser, originalProject, originalEnv, originalCache := getUserConfigPath, getProjectConfigPath, osLookupEnv, osUserCacheDir
	t.Cleanup(func() {
		getUserConfigPath, getProjectConfigPath, osLookupEnv, osUserCacheDir = originalUser, originalProject, originalEnv, originalCache
	})
	getUserConfigPath = func() (string, error) { return userPath, nil }
	getProjectConfigPath = func() (string, error) { return projectPath, nil }
	osLookupEnv = func(string) (string, bool) { return "", false }
	osUserCacheDir = func() (string, error) { return filepath.Join(dir, "cache"), nil }
	return userPath, projectPath
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadConfigDefaults(t *testing.T) {
	isolate(t)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ThemeDark, config.Theme)
	assert.Equal(t, "Localhost", config.Defaults.Name)
	assert.Equal(t, "http://localhost:8080", config.Defaults.Server)
	assert.Equal(t, 30*time.Second, config.CacheTTL)
	assert.Contains(t, config.LogDir, filepath.Join(configDirName, "logs"))
	assert.Empty(t, config.Connections)
}

func TestLoadConfigLayers(t *testing.T) {
	userPath, projectPath := isolate(t)
	writeFile(t, userPath, `
theme: light
cacheTTL: 5s
defaults:
  username: admin
connections:
  - name: Local
    server: http://localhost:8080
    username: admin
keyBindings:
  quit: ctrl+q
`)
	writeFile(t, projectPath, `
theme: dark
connections:
  - name: Renamed
    server: http://localhost:8080
    username: admin
  - name: Disk
    server: file:///srv/db
    username: guest
keyBindings:
  help: h
`)

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ThemeDark, config.Theme)
	assert.Equal(t, 5*time.Second, config.CacheTTL)
	assert.Equal(t, "admin", config.Defaults.Username)
	assert.Equal(t, "http://localhost:8080", config.Defaults.Server)
	require.Len(t, config.Connections, 2)
	assert.Equal(t, "Renamed", config.Connections[0].Name)
	assert.Equal(t, "Disk", config.Connections[1].Name)
	assert.Equal(t, map[string]string{"quit": "ctrl+q", "help": "h"}, config.KeyBindings)
}

func TestLoadConfigEnvironment(t *testing.T) {
	isolate(t)
	env := map[string]string{
		EnvTheme:           "light",
		EnvLogLevel:        "debug",
		EnvDefaultServer:   "mem://demo",
		EnvDefaultUsername: "guest",
	}
	osLookupEnv = func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "light", config.Theme)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "mem://demo", config.Defaults.Server)
	assert.Equal(t, "guest", config.Defaults.Username)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	userPath, _ := isolate(t)
	writeFile(t, userPath, "theme: neon\n")

	_, err := LoadConfig()
	assert.Error(t, err)

	writeFile(t, userPath, "theme: [\n")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestSaveConnectionsKeepsOtherSettings(t *testing.T) {
	userPath, _ := isolate(t)
	writeFile(t, userPath, "theme: light\n")

	err := SaveConnections([]domain.Connection{{Name: "Local", Server: "http://localhost:8080", Username: "admin", Password: "secret"}})
	require.NoError(t, err)

	data, err := os.ReadFile(userPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	config, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, config.Theme)
	require.Len(t, config.Connections, 1)
	assert.Equal(t, "admin-http://localhost:8080", config.Connections[0].ID())
	assert.Empty(t, config.Connections[0].Password)
}

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	var flags Flags
	set := pflag.NewFlagSet("pebble", pflag.ContinueOnError)
	flags.Bind(set)
	require.NoError(t, set.Parse([]string{"--server", "file:///srv/db", "--theme", "light"}))

	config, err := flags.Apply(DefaultConfig(), set)
	require.NoError(t, err)
	assert.Equal(t, "file:///srv/db", config.Defaults.Server)
	assert.Equal(t, ThemeLight, config.Theme)
	assert.Equal(t, "info", config.LogLevel)

	require.NoError(t, set.Parse([]string{"--log-level", "loud"}))
	_, err = flags.Apply(DefaultConfig(), set)
	assert.Error(t, err)
}

func TestSetupLogFileKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"pebble-2020-01-01T00-00-00.000.log", "pebble-2020-01-02T00-00-00.000.log", "pebble-2020-01-03T00-00-00.000.log"} {
		writeFile(t, filepath.Join(dir, name), "old\n")
	}

	f, err := SetupLogFile(dir, 2)
	require.NoError(t, err)
	defer f.Close()

	files, err := filepath.Glob(filepath.Join(dir, "pebble-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Contains(t, files, f.Name())
	assert.Contains(t, files, filepath.Join(dir, "pebble-2020-01-03T00-00-00.000.log"))
}

func TestConfigDirFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	originalEnv, originalDir := osLookupEnv, osUserConfigDir
	t.Cleanup(func() { osLookupEnv, osUserConfigDir = originalEnv, originalDir })
	osUserConfigDir = func() (string, error) { return filepath.Join(dir, "home"), nil }

	osLookupEnv = func(key string) (string, bool) {
		if key == EnvConfigDir {
			return filepath.Join(dir, "custom"), true
		}
		return "", false
	}
	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom", configFileName), path)

	osLookupEnv = func(string) (string, bool) { return "", false }
	path, err = ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "home", configDirName, configFileName), path)
}
