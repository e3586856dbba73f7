package core

import (
	"context"
	"errors"

	"pebble/internal/command"
	"pebble/internal/dialog"
	"pebble/internal/domain"
	"pebble/internal/services"
	"pebble/internal/state"
	"pebble/pkg/logging"
)

const subsystem = "core"

// Toolbar actions registered on the command registry.
const (
	ActionNewConnection    = "new-connection"
	ActionDeleteConnection = "delete-connection"
	ActionReload           = "reload"
	ActionRefresh          = "refresh"
)

type Options struct {
	Store    *state.Store
	Dialogs  dialog.Dialogs
	Commands *command.Registry
	Lister   services.Lister
	Defaults dialog.ConnectionDefaults
}

// Core runs user actions against the tree: it prompts through dialogs, asks
// the lister for server content and applies the results to the store.
type Core struct {
	store    *state.Store
	dialogs  dialog.Dialogs
	commands *command.Registry
	lister   services.Lister
	defaults dialog.ConnectionDefaults
}

func New(opts Options) *Core {
	store := opts.Store
	if store == nil {
		store = state.NewStore()
	}
	commands := opts.Commands
	if commands == nil {
		commands = command.NewRegistry()
	}
	core := &Core{
		store:    store,
		dialogs:  opts.Dialogs,
		commands: commands,
		lister:   opts.Lister,
		defaults: opts.Defaults,
	}
	core.registerActions()
	return core
}

func (core *Core) Store() *state.Store {
	return core.store
}

func (core *Core) Commands() *command.Registry {
	return core.commands
}

func (core *Core) registerActions() {
	core.commands.Register(command.ActionID(ActionNewConnection), func(ctx context.Context) error {
		_, err := core.NewConnection(ctx)
		return err
	})
	core.commands.Register(command.ActionID(ActionDeleteConnection), core.DeleteConnection)
	core.commands.Register(command.ActionID(ActionReload), func(ctx context.Context) error {
		selected, ok := core.store.Selected()
		if !ok {
			return nil
		}
		return core.Reload(ctx, selected.Ref)
	})
	core.commands.Register(command.ActionID(ActionRefresh), func(context.Context) error {
		core.Refresh()
		return nil
	})
}

// Execute runs a toolbar action by name.
func (core *Core) Execute(ctx context.Context, action string) error {
	return core.commands.Execute(ctx, command.ActionID(action))
}

// CreateRoot attaches a fresh tree holding only the toolbar.
func (core *Core) CreateRoot() {
	core.store.SetRoot()
}

// AddToolbar returns the toolbar, adding it when the root lost it.
func (core *Core) AddToolbar() (domain.NodeRef, error) {
	if ref := core.store.Toolbar(); ref != domain.NoRef {
		if _, ok := core.store.Node(ref); ok {
			return ref, nil
		}
	}
	return core.store.AddChild(core.store.Root(), domain.NewToolbarNode())
}

func (core *Core) Refresh() {
	core.store.Refresh()
}

func (core *Core) Select(ref domain.NodeRef) error {
	return absorb(core.store.Select(ref))
}

func (core *Core) IsConnection(ref domain.NodeRef) bool {
	node, ok := core.store.Node(ref)
	return ok && node.IsConnection()
}

func (core *Core) IsEmpty() bool {
	return core.store.IsEmpty()
}

// absorb swallows precondition failures; they come from actions the UI
// offered in a state where they do not apply.
func absorb(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrPrecondition) {
		logging.Debug(subsystem, "ignored: %v", err)
		return nil
	}
	return err
}
