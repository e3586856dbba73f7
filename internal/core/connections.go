package core

import (
	"context"
	"fmt"

	"pebble/internal/dialog"
	"pebble/internal/domain"
	"pebble/pkg/logging"
)

// AddConnection inserts a connection under the root.
func (core *Core) AddConnection(connection domain.Connection, expanded bool) (domain.NodeRef, error) {
	return core.store.AddChild(core.store.Root(), domain.NewConnectionNode(connection, expanded))
}

// NewConnection asks the user for connection parameters and adds the
// connection. It returns NoRef when the dialog was cancelled.
func (core *Core) NewConnection(ctx context.Context) (domain.NodeRef, error) {
	if core.dialogs == nil {
		return domain.NoRef, absorb(&domain.PreconditionError{Action: "new connection", Reason: "no dialog available"})
	}
	result, ok := core.dialogs.NewConnection(ctx, core.defaults)
	if !ok {
		logging.Debug(subsystem, "new connection cancelled")
		return domain.NoRef, nil
	}
	if err := result.Connection.Validate(); err != nil {
		return domain.NoRef, fmt.Errorf("new connection: %w", err)
	}
	ref, err := core.AddConnection(result.Connection, result.AutoConnect)
	if err != nil {
		return domain.NoRef, err
	}
	logging.Info(subsystem, "added connection %s", result.Connection)
	if result.AutoConnect {
		if err := core.Connect(ctx, ref); err != nil {
			return ref, err
		}
	}
	return ref, nil
}

// DeleteConnection removes the selected connection after confirmation. With
// nothing or something other than a connection selected it does nothing.
func (core *Core) DeleteConnection(ctx context.Context) error {
	node, ok := core.store.Selected()
	if !ok || !node.IsConnection() {
		return absorb(&domain.PreconditionError{Action: "delete connection", Reason: "no connection selected"})
	}
	if core.dialogs == nil {
		return absorb(&domain.PreconditionError{Action: "delete connection", Reason: "no dialog available"})
	}
	conn := node.Connection
	confirmed := core.dialogs.Confirm(ctx, dialog.ConfirmOptions{
		Title: "Delete connection",
		Lines: []string{
			"Are you sure you want to delete this connection?",
			"Name: " + conn.Name,
			"Server: " + conn.Server,
			"Username: " + conn.Username,
		},
		OK:     "Delete",
		Cancel: "Keep",
	})
	if !confirmed {
		return absorb(core.store.Select(node.Ref))
	}
	if err := core.store.RemoveChild(core.store.Root(), node.Ref); err != nil {
		return err
	}
	core.store.ClearSelection()
	logging.Info(subsystem, "deleted connection %s", conn)
	return nil
}

// RestoreConnections adds saved connections, collapsed. Duplicates are
// skipped.
func (core *Core) RestoreConnections(connections []domain.Connection) error {
	for _, conn := range connections {
		if _, exists := core.store.FindChild(core.store.Root(), conn.ID()); exists {
			logging.Warn(subsystem, "skipping duplicate connection %s", conn)
			continue
		}
		if err := conn.Validate(); err != nil {
			logging.Warn(subsystem, "skipping invalid connection %s: %v", conn, err)
			continue
		}
		if _, err := core.AddConnection(conn, false); err != nil {
			return err
		}
	}
	return nil
}

// Connections lists the connections in tree order, without passwords.
func (core *Core) Connections() []domain.Connection {
	nodes := core.store.Connections()
	connections := make([]domain.Connection, 0, len(nodes))
	for _, node := range nodes {
		conn := *node.Connection
		conn.Password = ""
		connections = append(connections, conn)
	}
	return connections
}
