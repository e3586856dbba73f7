package state

import "pebble/internal/domain"

type VisibleNode struct {
	Node  domain.Node
	Depth int
}

// Visible returns the rows a view renders: the root's descendants in
// depth-first order, skipping the children of collapsed nodes.
func (store *Store) Visible() []VisibleNode {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return append([]VisibleNode(nil), store.visible...)
}

func (store *Store) IndexOf(ref domain.NodeRef) int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	for index, item := range store.visible {
		if item.Node.Ref == ref {
			return index
		}
	}
	return -1
}

func (store *Store) rebuildVisible() {
	root, ok := store.nodes[store.rootRef]
	if !ok {
		store.visible = nil
		return
	}
	visible := make([]VisibleNode, 0, len(store.nodes))
	for _, child := range root.Children {
		store.appendNode(&visible, child, 0)
	}
	store.visible = visible
}

func (store *Store) appendNode(visible *[]VisibleNode, ref domain.NodeRef, depth int) {
	node, ok := store.nodes[ref]
	if !ok {
		return
	}
	*visible = append(*visible, VisibleNode{Node: node.Clone(), Depth: depth})
	if !node.IsContainer() || !node.Expanded {
		return
	}
	for _, child := range node.Children {
		store.appendNode(visible, child, depth+1)
	}
}
