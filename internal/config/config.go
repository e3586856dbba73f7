package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"pebble/internal/dialog"
	"pebble/internal/domain"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type Config struct {
	Theme       string                    `yaml:"theme"`
	LogLevel    string                    `yaml:"logLevel"`
	LogDir      string                    `yaml:"logDir"`
	MaxLogFiles int                       `yaml:"maxLogFiles"`
	ShowHidden  bool                      `yaml:"showHidden"`
	CacheTTL    time.Duration             `yaml:"cacheTTL"`
	Defaults    dialog.ConnectionDefaults `yaml:"defaults"`
	Connections []domain.Connection       `yaml:"connections"`
	KeyBindings map[string]string         `yaml:"keyBindings"`
}

// fileConfig mirrors Config with optional fields so a layer only overrides
// what it sets.
type fileConfig struct {
	Theme       *string                    `yaml:"theme,omitempty"`
	LogLevel    *string                    `yaml:"logLevel,omitempty"`
	LogDir      *string                    `yaml:"logDir,omitempty"`
	MaxLogFiles *int                       `yaml:"maxLogFiles,omitempty"`
	ShowHidden  *bool                      `yaml:"showHidden,omitempty"`
	CacheTTL    *time.Duration             `yaml:"cacheTTL,omitempty"`
	Defaults    *dialog.ConnectionDefaults `yaml:"defaults,omitempty"`
	Connections []domain.Connection        `yaml:"connections,omitempty"`
	KeyBindings map[string]string          `yaml:"keyBindings,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		Theme:       ThemeDark,
		LogLevel:    "info",
		MaxLogFiles: 10,
		CacheTTL:    30 * time.Second,
		Defaults:    dialog.DefaultConnectionDefaults(),
		KeyBindings: map[string]string{},
	}
}

func (config Config) Validate() error {
	return validation.ValidateStruct(&config,
		validation.Field(&config.Theme, validation.In(ThemeDark, ThemeLight)),
		validation.Field(&config.LogLevel, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&config.MaxLogFiles, validation.Min(1)),
		validation.Field(&config.CacheTTL, validation.Min(time.Duration(0))),
	)
}
