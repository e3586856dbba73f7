package core

import (
	"context"
	"fmt"

	"pebble/internal/domain"
	"pebble/internal/services"
	"pebble/pkg/logging"
)

// AddDocument materializes a listed document under parent.
func (core *Core) AddDocument(parent domain.NodeRef, connection *domain.Connection, resource domain.Resource) (domain.NodeRef, error) {
	return core.store.AddChild(parent, domain.NewDocumentNode(connection, resource))
}

// AddCollection materializes a listed collection under parent. The new node
// is collapsed and has not been listed yet.
func (core *Core) AddCollection(parent domain.NodeRef, connection *domain.Connection, resource domain.Resource) (domain.NodeRef, error) {
	return core.store.AddChild(parent, domain.NewCollectionNode(connection, resource))
}

// Move drops item onto target. When the server supports moves, the server
// side runs first and the tree only changes once it succeeded.
func (core *Core) Move(ctx context.Context, item, target domain.NodeRef) error {
	node, ok := core.store.Node(item)
	if !ok || !node.Draggable() {
		return absorb(&domain.PreconditionError{Action: "move", Reason: "only collections and documents can be moved"})
	}
	if err := core.store.CanMove(item, target); err != nil {
		return err
	}
	targetNode, _ := core.store.Node(target)
	if node.Parent == target {
		return nil
	}
	if mover, ok := core.lister.(services.Mover); ok {
		req := services.MoveRequest{
			Connection:       *node.Connection,
			Source:           node.Resource,
			TargetCollection: targetNode.CollectionPath(),
		}
		if err := mover.Move(ctx, req); err != nil {
			return fmt.Errorf("move %s to %s: %w", node.Resource, req.TargetCollection, err)
		}
	}
	if err := core.store.Move(item, target); err != nil {
		return err
	}
	logging.Info(subsystem, "moved %s to %s", node.Resource, targetNode.CollectionPath())
	return nil
}

// Open returns the content of a document for preview.
func (core *Core) Open(ctx context.Context, ref domain.NodeRef) ([]byte, error) {
	node, ok := core.store.Node(ref)
	if !ok || !node.IsDocument() {
		return nil, absorb(&domain.PreconditionError{Action: "open", Reason: "only documents can be opened"})
	}
	reader, ok := core.lister.(services.Reader)
	if !ok {
		return nil, fmt.Errorf("open %s: %w", node.Link, services.ErrUnsupportedServer)
	}
	data, err := reader.Read(ctx, services.ReadRequest{Connection: *node.Connection, Resource: node.Resource})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", node.Link, err)
	}
	return data, nil
}
