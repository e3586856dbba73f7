package config

import "github.com/spf13/pflag"

// Flags are the command line overrides, applied on top of every other layer.
type Flags struct {
	Theme    string
	LogLevel string
	Server   string
	Username string
}

func (flags *Flags) Bind(set *pflag.FlagSet) {
	set.StringVar(&flags.Theme, "theme", "", "Color theme (dark or light)")
	set.StringVar(&flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	set.StringVar(&flags.Server, "server", "", "Default server URL for new connections")
	set.StringVar(&flags.Username, "username", "", "Default username for new connections")
}

// Apply copies the flags the user actually set onto config.
func (flags Flags) Apply(config Config, set *pflag.FlagSet) (Config, error) {
	if set.Changed("theme") {
		config.Theme = flags.Theme
	}
	if set.Changed("log-level") {
		config.LogLevel = flags.LogLevel
	}
	if set.Changed("server") {
		config.Defaults.Server = flags.Server
	}
	if set.Changed("username") {
		config.Defaults.Username = flags.Username
	}
	return config, config.Validate()
}
