package state

import "pebble/internal/domain"

// Select makes ref the only selected node.
func (store *Store) Select(ref domain.NodeRef) error {
	return store.mutate(func() ([]Event, error) {
		node, ok := store.live(ref)
		if !ok {
			return nil, &domain.PreconditionError{Action: "select", Reason: "node is not in the tree"}
		}
		if node.IsRoot() || node.IsLoading() {
			return nil, &domain.PreconditionError{Action: "select", Reason: node.Kind.String() + " nodes are not selectable"}
		}
		if store.selected == ref {
			return nil, nil
		}
		if previous, ok := store.live(store.selected); ok {
			previous.Selected = false
		}
		node.Selected = true
		store.selected = ref
		return []Event{{Type: EventSelectionChanged, Ref: ref}}, nil
	})
}

func (store *Store) ClearSelection() {
	_ = store.mutate(func() ([]Event, error) {
		previous, ok := store.live(store.selected)
		store.selected = domain.NoRef
		if !ok {
			return nil, nil
		}
		previous.Selected = false
		return []Event{{Type: EventSelectionChanged, Ref: domain.NoRef}}, nil
	})
}

func (store *Store) Selected() (domain.Node, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	node, ok := store.live(store.selected)
	if !ok {
		return domain.Node{}, false
	}
	return node.Clone(), true
}

func (store *Store) IsConnectionSelected() bool {
	node, ok := store.Selected()
	return ok && node.IsConnection()
}
