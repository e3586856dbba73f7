package config

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvConfigDir       = "PEBBLE_CONFIG_DIR"
	EnvTheme           = "PEBBLE_THEME"
	EnvLogLevel        = "PEBBLE_LOG_LEVEL"
	EnvDefaultServer   = "PEBBLE_DEFAULT_SERVER"
	EnvDefaultUsername = "PEBBLE_DEFAULT_USERNAME"
)

var osLookupEnv = os.LookupEnv

// LoadDotEnv reads .env files into the environment; missing files are fine
// and variables already set win.
func LoadDotEnv(paths ...string) {
	_ = godotenv.Load(paths...)
}

func applyEnv(config Config) Config {
	if value, ok := osLookupEnv(EnvTheme); ok && value != "" {
		config.Theme = value
	}
	if value, ok := osLookupEnv(EnvLogLevel); ok && value != "" {
		config.LogLevel = value
	}
	if value, ok := osLookupEnv(EnvDefaultServer); ok && value != "" {
		config.Defaults.Server = value
	}
	if value, ok := osLookupEnv(EnvDefaultUsername); ok && value != "" {
		config.Defaults.Username = value
	}
	return config
}
