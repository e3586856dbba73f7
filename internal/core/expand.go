package core

import (
	"context"
	"fmt"

	"pebble/internal/domain"
	"pebble/internal/services"
	"pebble/pkg/logging"
)

// Load puts the loading placeholder under a node while its listing is fetched.
func (core *Core) Load(ref domain.NodeRef) error {
	return core.store.AddLoadingPlaceholder(ref)
}

// Unload removes the loading placeholder. The store looks the placeholder up
// by kind, so a node without one yields an InvalidStateError.
func (core *Core) Unload(ref domain.NodeRef) error {
	if !core.store.HasLoadingPlaceholder(ref) {
		return &domain.InvalidStateError{NodeID: core.idOf(ref), Reason: "unload without a loading placeholder"}
	}
	return core.store.RemoveLoadingPlaceholder(ref)
}

// Connect opens a connection: it expands the node and lists the root
// collection of its server.
func (core *Core) Connect(ctx context.Context, ref domain.NodeRef) error {
	node, ok := core.store.Node(ref)
	if !ok || !node.IsConnection() {
		return absorb(&domain.PreconditionError{Action: "connect", Reason: "not a connection"})
	}
	logging.Info(subsystem, "connecting to %s", node.Connection)
	return core.Expand(ctx, ref)
}

// Expand moves a connection or collection from collapsed to loaded. Nodes
// that were loaded before are only re-expanded, never refetched; a node that
// is already loading is left alone.
func (core *Core) Expand(ctx context.Context, ref domain.NodeRef) error {
	node, ok := core.store.Node(ref)
	if !ok || !node.IsContainer() || node.IsRoot() {
		return absorb(&domain.PreconditionError{Action: "expand", Reason: "node cannot be expanded"})
	}
	if err := core.store.SetExpanded(ref, true); err != nil {
		return err
	}
	if core.lister == nil {
		return nil
	}
	started, err := core.store.StartLoading(ref)
	if err != nil || !started {
		return err
	}
	return core.fetch(ctx, node)
}

// fetch lists a node that holds the loading placeholder and replaces the
// placeholder with the listing. On failure the node is left collapsed and
// unloaded with no children, so the next expand lists it again.
func (core *Core) fetch(ctx context.Context, node domain.Node) error {
	ref := node.Ref
	result, err := core.list(ctx, node)
	if err == nil {
		err = core.populate(ref, node.Connection, result.Resources)
	}
	if err != nil {
		if _, alive := core.store.Node(ref); !alive {
			logging.Debug(subsystem, "dropping listing of %s: node removed", node.ID)
			return nil
		}
		_ = core.Unload(ref)
		_ = core.store.ClearChildren(ref)
		_ = core.store.SetExpanded(ref, false)
		logging.Error(subsystem, err, "listing %s failed", node.CollectionPath())
		return err
	}
	logging.Debug(subsystem, "listed %s: %d resources in %s (cached=%t)", result.Collection, len(result.Resources), result.Duration, result.Cached)
	// Loaded is set before the placeholder goes so a concurrent Expand never
	// sees a node that is neither loading nor loaded.
	if err := core.store.SetLoaded(ref, true); err != nil {
		return err
	}
	return core.Unload(ref)
}

func (core *Core) Collapse(ref domain.NodeRef) error {
	node, ok := core.store.Node(ref)
	if !ok || !node.IsContainer() || node.IsRoot() {
		return absorb(&domain.PreconditionError{Action: "collapse", Reason: "node cannot be collapsed"})
	}
	return core.store.SetExpanded(ref, false)
}

// Toggle expands a collapsed node and collapses an expanded one.
func (core *Core) Toggle(ctx context.Context, ref domain.NodeRef) error {
	node, ok := core.store.Node(ref)
	if ok && node.Expanded {
		return core.Collapse(ref)
	}
	return core.Expand(ctx, ref)
}

// Reload throws away the children of a node and lists it again. For a
// document the parent collection is reloaded.
func (core *Core) Reload(ctx context.Context, ref domain.NodeRef) error {
	node, ok := core.store.Node(ref)
	if ok && node.IsDocument() {
		ref = node.Parent
		node, ok = core.store.Node(ref)
	}
	if !ok || !node.IsContainer() || node.IsRoot() {
		return absorb(&domain.PreconditionError{Action: "reload", Reason: "nothing to reload"})
	}
	if core.lister == nil {
		return nil
	}
	if invalidator, ok := core.lister.(services.Invalidator); ok && node.Connection != nil {
		invalidator.Invalidate(*node.Connection, node.CollectionPath())
	}
	started, err := core.store.StartReload(ref)
	if err != nil || !started {
		return err
	}
	if err := core.store.SetExpanded(ref, true); err != nil {
		return err
	}
	return core.fetch(ctx, node)
}

func (core *Core) list(ctx context.Context, node domain.Node) (services.ListResult, error) {
	if node.Connection == nil {
		return services.ListResult{}, &domain.InvalidStateError{NodeID: node.ID, Reason: "node has no connection"}
	}
	result, err := core.lister.List(ctx, services.ListRequest{Connection: *node.Connection, Collection: node.CollectionPath()})
	if err != nil {
		return services.ListResult{}, fmt.Errorf("list %s on %s: %w", node.CollectionPath(), node.Connection.Server, err)
	}
	return result, nil
}

// populate materializes a listing. Resources already in the tree, for
// example moved there before the listing ran, are kept as they are.
func (core *Core) populate(parent domain.NodeRef, connection *domain.Connection, resources []domain.Resource) error {
	for _, resource := range resources {
		if _, exists := core.store.FindChild(parent, resource.Name); exists {
			continue
		}
		var err error
		if resource.Collection {
			_, err = core.AddCollection(parent, connection, resource)
		} else {
			_, err = core.AddDocument(parent, connection, resource)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (core *Core) idOf(ref domain.NodeRef) string {
	if node, ok := core.store.Node(ref); ok {
		return node.ID
	}
	return ""
}
