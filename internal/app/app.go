package app

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"pebble/internal/config"
	"pebble/internal/core"
	"pebble/internal/dialog"
	"pebble/internal/services"
	"pebble/internal/state"
	"pebble/internal/ui"
	"pebble/pkg/logging"
)

const subsystem = "app"

// Run starts the connection browser with cfg and blocks until the user
// quits. Connections added during the session are saved on exit.
func Run(cfg config.Config, warning string) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	if cfg.LogDir == "" {
		cfg.LogDir = config.DefaultLogDir()
	}
	var logOutput io.Writer = io.Discard
	if file, err := config.SetupLogFile(cfg.LogDir, cfg.MaxLogFiles); err == nil {
		defer file.Close()
		logOutput = file
	} else {
		warning = fmt.Sprintf("Log file unavailable: %v", err)
	}
	logs := logging.InitForTUI(level, logOutput)
	defer logging.CloseTUIChannel()

	controller, broker := Build(cfg)
	model := ui.NewModel(controller, ui.Options{
		Dialogs:     broker,
		Logs:        logs,
		Theme:       cfg.Theme,
		KeyBindings: cfg.KeyBindings,
	}).WithStatus(warning)

	logging.Info(subsystem, "starting with %d saved connections", len(cfg.Connections))
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	if err := config.SaveConnections(controller.Connections()); err != nil {
		logging.Error(subsystem, err, "save connections")
		return fmt.Errorf("save connections: %w", err)
	}
	return nil
}

// Build wires a core for cfg: a fresh tree holding the toolbar and the
// saved connections, served by the default listers.
func Build(cfg config.Config) (*core.Core, *dialog.Broker) {
	broker := dialog.NewBroker()
	controller := core.New(core.Options{
		Store:    state.NewStore(),
		Dialogs:  broker,
		Lister:   services.NewDefaultRouter(cfg.CacheTTL, cfg.ShowHidden),
		Defaults: cfg.Defaults,
	})
	controller.CreateRoot()
	if err := controller.RestoreConnections(cfg.Connections); err != nil {
		logging.Error(subsystem, err, "restore connections")
	}
	return controller, broker
}
