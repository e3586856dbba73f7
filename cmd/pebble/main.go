// Command pebble browses the collections and documents of document-database
// servers in the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pebble/internal/app"
	"pebble/internal/config"
	"pebble/pkg/logging"
)

var (
	// Version is set during build
	Version = "dev"
	// BuildDate is set during build
	BuildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	flags := &config.Flags{}
	rootCmd := &cobra.Command{
		Use:   "pebble",
		Short: "Browse document database servers in the terminal",
		Long: `pebble - browse document database servers in the terminal

Connections are listed in a tree. Expanding a connection opens it and lists
the root collection; collections list their children on first expand.

Servers:
  file:///path   a directory on disk served as a database
  mem://demo     the built-in demo database

Environment Variables:
  PEBBLE_CONFIG_DIR        Directory holding config.yaml (default: user config dir)
  PEBBLE_THEME             Color theme (dark or light)
  PEBBLE_LOG_LEVEL         Log level (debug, info, warn, error)
  PEBBLE_DEFAULT_SERVER    Server prefilled in the new connection form
  PEBBLE_DEFAULT_USERNAME  Username prefilled in the new connection form
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, warning, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return app.Run(cfg, warning)
		},
	}
	flags.Bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pebble version %s (built %s)\n", Version, BuildDate)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for pebble.

Bash:
  $ source <(pebble completion bash)

Zsh:
  $ pebble completion zsh > "${fpath[1]}/_pebble"

Fish:
  $ pebble completion fish | source
`,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactArgs(1),
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			default:
				return fmt.Errorf("unsupported shell: %s", args[0])
			}
		},
	})

	rootCmd.AddCommand(newConnectionsCmd(flags))
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers .env, the config files, the environment and the flags.
// A broken config file is not fatal for the browser: it starts with the
// defaults and reports the problem in the status line.
func loadConfig(cmd *cobra.Command, flags *config.Flags) (config.Config, string, error) {
	config.LoadDotEnv()
	var warning string
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Warn("cli", "using default config: %v", err)
		warning = "Config warning: using defaults"
		cfg = config.DefaultConfig()
	}
	cfg, err = flags.Apply(cfg, cmd.Flags())
	if err != nil {
		return cfg, "", fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, warning, nil
}
