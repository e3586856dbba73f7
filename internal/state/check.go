package state

import (
	"fmt"

	"pebble/internal/domain"
)

// Check walks the graph and reports the first broken structural invariant.
func (store *Store) Check() error {
	store.mu.RLock()
	defer store.mu.RUnlock()

	root, ok := store.nodes[store.rootRef]
	if !ok || !root.IsRoot() {
		return fmt.Errorf("root %d missing", store.rootRef)
	}
	if len(root.Children) == 0 || root.Children[0] != store.toolbarRef {
		return fmt.Errorf("toolbar is not the first child of the root")
	}

	seen := make(map[domain.NodeRef]bool, len(store.nodes))
	seen[root.Ref] = true
	selected := 0
	var walk func(node *domain.Node) error
	walk = func(node *domain.Node) error {
		if !node.IsContainer() && len(node.Children) > 0 {
			return fmt.Errorf("leaf %q (%s) has children", node.ID, node.Kind)
		}
		ids := make(map[string]bool, len(node.Children))
		placeholders := 0
		for _, ref := range node.Children {
			child, ok := store.nodes[ref]
			if !ok {
				return fmt.Errorf("node %q lists missing child %d", node.ID, ref)
			}
			if seen[ref] {
				return fmt.Errorf("node %q appears more than once", child.ID)
			}
			seen[ref] = true
			if child.Parent != node.Ref {
				return fmt.Errorf("node %q has parent %d, listed under %q", child.ID, child.Parent, node.ID)
			}
			if ids[child.ID] {
				return fmt.Errorf("duplicate sibling id %q under %q", child.ID, node.ID)
			}
			ids[child.ID] = true
			if child.IsLoading() {
				placeholders++
			}
			if child.Selected {
				selected++
			}
			if err := walk(child); err != nil {
				return err
			}
		}
		if placeholders > 1 {
			return fmt.Errorf("node %q has %d loading placeholders", node.ID, placeholders)
		}
		return nil
	}
	if err := walk(root); err != nil {
		return err
	}
	if len(seen) != len(store.nodes) {
		return fmt.Errorf("%d nodes are not reachable from the root", len(store.nodes)-len(seen))
	}
	if selected > 1 {
		return fmt.Errorf("%d nodes selected", selected)
	}
	if store.selected != domain.NoRef {
		node, ok := store.nodes[store.selected]
		if !ok || !node.Selected {
			return fmt.Errorf("selection points at %d which is not marked selected", store.selected)
		}
	} else if selected != 0 {
		return fmt.Errorf("node marked selected without a current selection")
	}
	return nil
}
