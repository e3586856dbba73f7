package state

import "pebble/internal/domain"

func (store *Store) Node(ref domain.NodeRef) (domain.Node, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	node, ok := store.live(ref)
	if !ok {
		return domain.Node{}, false
	}
	return node.Clone(), true
}

func (store *Store) Children(ref domain.NodeRef) []domain.Node {
	store.mu.RLock()
	defer store.mu.RUnlock()
	node, ok := store.live(ref)
	if !ok {
		return nil
	}
	children := make([]domain.Node, 0, len(node.Children))
	for _, child := range node.Children {
		if childNode, ok := store.nodes[child]; ok {
			children = append(children, childNode.Clone())
		}
	}
	return children
}

func (store *Store) FindChild(parent domain.NodeRef, id string) (domain.Node, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	node, ok := store.live(parent)
	if !ok {
		return domain.Node{}, false
	}
	ref := store.childByID(node, id)
	if ref == domain.NoRef {
		return domain.Node{}, false
	}
	return store.nodes[ref].Clone(), true
}

// Connections returns the connection nodes in display order.
func (store *Store) Connections() []domain.Node {
	children := store.Children(store.Root())
	connections := make([]domain.Node, 0, len(children))
	for _, child := range children {
		if child.IsConnection() {
			connections = append(connections, child)
		}
	}
	return connections
}

// ConnectionOf walks up from ref to the connection node owning it.
func (store *Store) ConnectionOf(ref domain.NodeRef) (domain.Node, bool) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	for current := ref; current != domain.NoRef; {
		node, ok := store.nodes[current]
		if !ok {
			return domain.Node{}, false
		}
		if node.IsConnection() {
			return node.Clone(), true
		}
		current = node.Parent
	}
	return domain.Node{}, false
}

func (store *Store) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.nodes)
}

// IsEmpty reports whether the tree holds nothing but the toolbar.
func (store *Store) IsEmpty() bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	root, ok := store.live(store.rootRef)
	return !ok || len(root.Children) < 2
}
