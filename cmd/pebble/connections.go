package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pebble/internal/clierr"
	"pebble/internal/config"
	"pebble/internal/domain"
)

func newConnectionsCmd(flags *config.Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"conn"},
		Short:   "Manage saved connections",
	}
	cmd.AddCommand(newConnectionsListCmd(), newConnectionsAddCmd(flags), newConnectionsRemoveCmd())
	return cmd
}

func newConnectionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cfg.Connections) == 0 {
				fmt.Fprintln(out, clierr.NothingFound("saved connections"))
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSERVER\tUSERNAME")
			for _, conn := range cfg.Connections {
				fmt.Fprintf(w, "%s\t%s\t%s\n", conn.Name, conn.Server, conn.Username)
			}
			return w.Flush()
		},
	}
}

func newConnectionsAddCmd(flags *config.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Save a connection without opening the browser",
		Long: `Save a connection without opening the browser. The server and
username come from --server and --username, falling back to the configured
defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg, err = flags.Apply(cfg, cmd.Flags()); err != nil {
				return err
			}
			conn := domain.Connection{Name: args[0], Server: cfg.Defaults.Server, Username: cfg.Defaults.Username}
			if err := conn.Validate(); err != nil {
				return clierr.WrapWithHint(err, "check --server and --username")
			}
			for _, existing := range cfg.Connections {
				if existing.ID() == conn.ID() {
					return fmt.Errorf("connection %s is already saved", conn)
				}
			}
			if err := config.SaveConnections(append(cfg.Connections, conn)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", conn)
			return nil
		},
	}
}

func newConnectionsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove saved connections by name",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			kept := make([]domain.Connection, 0, len(cfg.Connections))
			for _, conn := range cfg.Connections {
				if conn.Name != args[0] {
					kept = append(kept, conn)
				}
			}
			removed := len(cfg.Connections) - len(kept)
			if removed == 0 {
				return fmt.Errorf("%w: connection %q", domain.ErrNotFound, args[0])
			}
			if err := config.SaveConnections(kept); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d connection(s)\n", removed)
			return nil
		},
	}
}
