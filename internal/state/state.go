package state

import (
	"sync"

	"pebble/internal/domain"
)

type EventType int

const (
	EventRootReplaced EventType = iota
	EventNodeAdded
	EventNodeRemoved
	EventNodeMoved
	EventNodeChanged
	EventSelectionChanged
	EventRefresh
)

func (eventType EventType) String() string {
	switch eventType {
	case EventRootReplaced:
		return "root-replaced"
	case EventNodeAdded:
		return "node-added"
	case EventNodeRemoved:
		return "node-removed"
	case EventNodeMoved:
		return "node-moved"
	case EventNodeChanged:
		return "node-changed"
	case EventSelectionChanged:
		return "selection-changed"
	default:
		return "refresh"
	}
}

// Event is delivered to subscribers after a mutation has been fully applied.
type Event struct {
	Type   EventType
	Ref    domain.NodeRef
	Parent domain.NodeRef
}

type Listener func(Event)

// Store owns the node graph. All structural changes go through its methods;
// callers only ever see copies of nodes.
type Store struct {
	mu         sync.RWMutex
	nodes      map[domain.NodeRef]*domain.Node
	rootRef    domain.NodeRef
	toolbarRef domain.NodeRef
	selected   domain.NodeRef
	nextRef    domain.NodeRef
	visible    []VisibleNode

	// emitMu keeps notifications in mutation order.
	emitMu       sync.Mutex
	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

func NewStore() *Store {
	store := &Store{listeners: make(map[int]Listener)}
	store.SetRoot()
	return store
}

// Subscribe registers a refresh listener. Listeners must not mutate the store.
func (store *Store) Subscribe(listener Listener) func() {
	store.listenersMu.Lock()
	defer store.listenersMu.Unlock()
	id := store.nextListener
	store.nextListener++
	store.listeners[id] = listener
	return func() {
		store.listenersMu.Lock()
		defer store.listenersMu.Unlock()
		delete(store.listeners, id)
	}
}

// SetRoot replaces the whole tree with a root that only holds the toolbar.
func (store *Store) SetRoot() {
	_ = store.mutate(func() ([]Event, error) {
		store.nodes = make(map[domain.NodeRef]*domain.Node)
		root := domain.NewRootNode()
		root.Ref = store.allocRef()
		store.nodes[root.Ref] = &root
		store.rootRef = root.Ref
		store.selected = domain.NoRef
		store.toolbarRef = store.insert(&root, domain.NewToolbarNode(), -1)
		return []Event{{Type: EventRootReplaced, Ref: root.Ref}}, nil
	})
}

func (store *Store) Root() domain.NodeRef {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.rootRef
}

func (store *Store) Toolbar() domain.NodeRef {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.toolbarRef
}

// AddChild appends child under parent and returns the ref assigned to it.
func (store *Store) AddChild(parent domain.NodeRef, child domain.Node) (domain.NodeRef, error) {
	var ref domain.NodeRef
	err := store.mutate(func() ([]Event, error) {
		parentNode, ok := store.live(parent)
		if !ok {
			return nil, &domain.InvalidParentError{ChildID: child.ID, Reason: "parent is not in the tree"}
		}
		if err := store.checkPlacement(parentNode, child); err != nil {
			return nil, err
		}
		ref = store.insert(parentNode, child, -1)
		return []Event{{Type: EventNodeAdded, Ref: ref, Parent: parent}}, nil
	})
	return ref, err
}

// RemoveChild detaches child and its whole subtree from parent.
func (store *Store) RemoveChild(parent, child domain.NodeRef) error {
	return store.mutate(func() ([]Event, error) {
		parentNode, ok := store.live(parent)
		if !ok {
			return nil, &domain.NotFoundError{ChildID: store.idOf(child)}
		}
		index := indexOf(parentNode.Children, child)
		if index < 0 {
			return nil, &domain.NotFoundError{ParentID: parentNode.ID, ChildID: store.idOf(child)}
		}
		if child == store.toolbarRef {
			return nil, &domain.InvalidStateError{NodeID: domain.ToolbarID, Reason: "toolbar cannot be removed"}
		}
		parentNode.Children = removeAt(parentNode.Children, index)
		store.drop(child)
		return []Event{{Type: EventNodeRemoved, Ref: child, Parent: parent}}, nil
	})
}

// AddLoadingPlaceholder inserts the transient loading node as the first child.
func (store *Store) AddLoadingPlaceholder(ref domain.NodeRef) error {
	return store.mutate(func() ([]Event, error) {
		node, ok := store.live(ref)
		if !ok || !node.IsContainer() || node.IsRoot() {
			return nil, &domain.InvalidParentError{ParentID: store.idOf(ref), ChildID: domain.LoadingID, Reason: "node cannot hold a loading placeholder"}
		}
		if store.loadingChild(node) != domain.NoRef {
			return nil, &domain.InvalidStateError{NodeID: node.ID, Reason: "loading placeholder already present"}
		}
		added := store.insert(node, domain.NewLoadingNode(), 0)
		return []Event{{Type: EventNodeAdded, Ref: added, Parent: ref}}, nil
	})
}

// RemoveLoadingPlaceholder removes the loading node, wherever it sits among
// the children.
func (store *Store) RemoveLoadingPlaceholder(ref domain.NodeRef) error {
	return store.mutate(func() ([]Event, error) {
		node, ok := store.live(ref)
		if !ok {
			return nil, &domain.NotFoundError{ChildID: store.idOf(ref)}
		}
		placeholder := store.loadingChild(node)
		if placeholder == domain.NoRef {
			return nil, &domain.InvalidStateError{NodeID: node.ID, Reason: "no loading placeholder present"}
		}
		node.Children = removeAt(node.Children, indexOf(node.Children, placeholder))
		store.drop(placeholder)
		return []Event{{Type: EventNodeRemoved, Ref: placeholder, Parent: ref}}, nil
	})
}

// StartLoading adds the loading placeholder unless the node is already
// loaded or loading. It reports whether the caller now owns the fetch.
func (store *Store) StartLoading(ref domain.NodeRef) (bool, error) {
	started := false
	err := store.mutate(func() ([]Event, error) {
		node, ok := store.live(ref)
		if !ok || !node.IsContainer() || node.IsRoot() {
			return nil, &domain.InvalidParentError{ParentID: store.idOf(ref), ChildID: domain.LoadingID, Reason: "node cannot hold a loading placeholder"}
		}
		if node.Loaded || store.loadingChild(node) != domain.NoRef {
			return nil, nil
		}
		started = true
		added := store.insert(node, domain.NewLoadingNode(), 0)
		return []Event{{Type: EventNodeAdded, Ref: added, Parent: ref}}, nil
	})
	return started, err
}

func (store *Store) HasLoadingPlaceholder(ref domain.NodeRef) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	node, ok := store.live(ref)
	return ok && store.loadingChild(node) != domain.NoRef
}

// Refresh recomputes the visible projection and notifies subscribers.
func (store *Store) Refresh() {
	_ = store.mutate(func() ([]Event, error) {
		return []Event{{Type: EventRefresh, Ref: store.rootRef}}, nil
	})
}

func (store *Store) SetExpanded(ref domain.NodeRef, expanded bool) error {
	return store.updateContainer(ref, func(node *domain.Node) bool {
		if node.Expanded == expanded {
			return false
		}
		node.Expanded = expanded
		return true
	})
}

func (store *Store) SetLoaded(ref domain.NodeRef, loaded bool) error {
	return store.updateContainer(ref, func(node *domain.Node) bool {
		if node.Loaded == loaded {
			return false
		}
		node.Loaded = loaded
		return true
	})
}

// ClearChildren drops every child of a connection or collection and marks
// it as not loaded. A node that is loading is left alone.
func (store *Store) ClearChildren(ref domain.NodeRef) error {
	return store.mutate(func() ([]Event, error) {
		node, err := store.clearable(ref)
		if err != nil {
			return nil, err
		}
		if store.loadingChild(node) != domain.NoRef {
			return nil, &domain.InvalidStateError{NodeID: node.ID, Reason: "cannot clear while loading"}
		}
		store.clear(node)
		return []Event{{Type: EventNodeChanged, Ref: ref}}, nil
	})
}

// StartReload clears a node and adds the loading placeholder in one step. It
// reports false, changing nothing, when the node is already loading.
func (store *Store) StartReload(ref domain.NodeRef) (bool, error) {
	started := false
	err := store.mutate(func() ([]Event, error) {
		node, err := store.clearable(ref)
		if err != nil || store.loadingChild(node) != domain.NoRef {
			return nil, err
		}
		started = true
		store.clear(node)
		added := store.insert(node, domain.NewLoadingNode(), 0)
		return []Event{{Type: EventNodeChanged, Ref: ref}, {Type: EventNodeAdded, Ref: added, Parent: ref}}, nil
	})
	return started, err
}

func (store *Store) clearable(ref domain.NodeRef) (*domain.Node, error) {
	node, ok := store.live(ref)
	if !ok || !node.IsContainer() || node.IsRoot() {
		return nil, &domain.InvalidStateError{NodeID: store.idOf(ref), Reason: "only connections and collections can be cleared"}
	}
	return node, nil
}

func (store *Store) clear(node *domain.Node) {
	for _, child := range node.Children {
		store.drop(child)
	}
	node.Children = []domain.NodeRef{}
	node.Loaded = false
}

// Move reparents an item under target, rewriting resource names of the
// moved subtree to live below the target collection. Moving an item onto its
// own parent is a no-op.
func (store *Store) Move(child, target domain.NodeRef) error {
	return store.mutate(func() ([]Event, error) {
		childNode, targetNode, resource, err := store.checkMove(child, target)
		if err != nil || childNode.Parent == target {
			return nil, err
		}
		oldParent := store.nodes[childNode.Parent]
		oldParent.Children = removeAt(oldParent.Children, indexOf(oldParent.Children, child))
		targetNode.Children = append(targetNode.Children, child)
		childNode.Parent = target
		store.rename(childNode, childNode.Resource, resource)
		return []Event{{Type: EventNodeMoved, Ref: child, Parent: target}}, nil
	})
}

// CanMove reports the error Move would return, without moving anything.
func (store *Store) CanMove(child, target domain.NodeRef) error {
	store.mu.RLock()
	defer store.mu.RUnlock()
	_, _, _, err := store.checkMove(child, target)
	return err
}

func (store *Store) checkMove(child, target domain.NodeRef) (*domain.Node, *domain.Node, string, error) {
	childNode, ok := store.live(child)
	if !ok {
		return nil, nil, "", &domain.NotFoundError{ChildID: store.idOf(child)}
	}
	if !childNode.Draggable() {
		return nil, nil, "", &domain.InvalidStateError{NodeID: childNode.ID, Reason: "only collections and documents can be moved"}
	}
	targetNode, ok := store.live(target)
	if !ok || !targetNode.IsContainer() || targetNode.IsRoot() {
		return nil, nil, "", &domain.InvalidParentError{ParentID: store.idOf(target), ChildID: childNode.ID, Reason: "drop target cannot own children"}
	}
	if childNode.Parent == target {
		return childNode, targetNode, childNode.Resource, nil
	}
	if store.isAncestor(child, target) {
		return nil, nil, "", &domain.InvalidParentError{ParentID: targetNode.ID, ChildID: childNode.ID, Reason: "cannot move a collection into itself"}
	}
	if !sameConnection(childNode, targetNode) {
		return nil, nil, "", &domain.InvalidParentError{ParentID: targetNode.ID, ChildID: childNode.ID, Reason: "target belongs to another connection"}
	}
	resource := domain.JoinResource(targetNode.CollectionPath(), domain.BaseName(childNode.Resource))
	if store.childByID(targetNode, resource) != domain.NoRef {
		return nil, nil, "", &domain.InvalidParentError{ParentID: targetNode.ID, ChildID: resource, Reason: "duplicate id"}
	}
	return childNode, targetNode, resource, nil
}

func (store *Store) mutate(apply func() ([]Event, error)) error {
	store.mu.Lock()
	events, err := apply()
	if err != nil || len(events) == 0 {
		store.mu.Unlock()
		return err
	}
	store.rebuildVisible()
	store.emitMu.Lock()
	store.mu.Unlock()
	defer store.emitMu.Unlock()

	store.listenersMu.Lock()
	listeners := make([]Listener, 0, len(store.listeners))
	for _, listener := range store.listeners {
		listeners = append(listeners, listener)
	}
	store.listenersMu.Unlock()
	for _, event := range events {
		for _, listener := range listeners {
			listener(event)
		}
	}
	return nil
}

func (store *Store) updateContainer(ref domain.NodeRef, update func(node *domain.Node) bool) error {
	return store.mutate(func() ([]Event, error) {
		node, ok := store.live(ref)
		if !ok {
			return nil, &domain.NotFoundError{ChildID: store.idOf(ref)}
		}
		if !node.IsContainer() || node.IsRoot() {
			return nil, &domain.InvalidStateError{NodeID: node.ID, Reason: "node cannot be expanded"}
		}
		if !update(node) {
			return nil, nil
		}
		return []Event{{Type: EventNodeChanged, Ref: ref}}, nil
	})
}

func (store *Store) checkPlacement(parent *domain.Node, child domain.Node) error {
	reject := func(reason string) error {
		return &domain.InvalidParentError{ParentID: parent.ID, ChildID: child.ID, Reason: reason}
	}
	if !parent.IsContainer() {
		return reject("parent cannot own children")
	}
	if child.ID == "" {
		return reject("empty id")
	}
	switch child.Kind {
	case domain.KindRoot:
		return reject("root cannot be nested")
	case domain.KindLoading:
		return reject("loading placeholders are managed separately")
	case domain.KindToolbar:
		if !parent.IsRoot() {
			return reject("toolbar belongs to the root")
		}
		if _, ok := store.live(store.toolbarRef); ok {
			return &domain.InvalidStateError{NodeID: child.ID, Reason: "toolbar already present"}
		}
	case domain.KindConnection:
		if !parent.IsRoot() {
			return reject("connections belong to the root")
		}
	default:
		if parent.IsRoot() {
			return reject("resources belong to a connection")
		}
	}
	if store.childByID(parent, child.ID) != domain.NoRef {
		return reject("duplicate id")
	}
	return nil
}

func (store *Store) insert(parent *domain.Node, child domain.Node, at int) domain.NodeRef {
	node := child
	node.Ref = store.allocRef()
	node.Parent = parent.Ref
	node.Selected = false
	node.Children = nil
	if node.IsContainer() {
		node.Children = []domain.NodeRef{}
	}
	store.nodes[node.Ref] = &node
	if at < 0 || at >= len(parent.Children) {
		parent.Children = append(parent.Children, node.Ref)
	} else {
		parent.Children = append(parent.Children[:at], append([]domain.NodeRef{node.Ref}, parent.Children[at:]...)...)
	}
	return node.Ref
}

func (store *Store) drop(ref domain.NodeRef) {
	node, ok := store.nodes[ref]
	if !ok {
		return
	}
	for _, child := range node.Children {
		store.drop(child)
	}
	if store.selected == ref {
		store.selected = domain.NoRef
	}
	delete(store.nodes, ref)
}

func (store *Store) rename(node *domain.Node, oldPrefix, newPrefix string) {
	if node.Resource == oldPrefix || len(node.Resource) > len(oldPrefix) && node.Resource[:len(oldPrefix)+1] == oldPrefix+"/" {
		node.Resource = newPrefix + node.Resource[len(oldPrefix):]
		node.ID = node.Resource
		node.Link = domain.Link(node.Resource)
	}
	for _, child := range node.Children {
		if childNode, ok := store.nodes[child]; ok && childNode.IsItem() {
			store.rename(childNode, oldPrefix, newPrefix)
		}
	}
}

func (store *Store) live(ref domain.NodeRef) (*domain.Node, bool) {
	node, ok := store.nodes[ref]
	return node, ok
}

func (store *Store) allocRef() domain.NodeRef {
	store.nextRef++
	return store.nextRef
}

func (store *Store) idOf(ref domain.NodeRef) string {
	if node, ok := store.nodes[ref]; ok {
		return node.ID
	}
	return ""
}

func (store *Store) loadingChild(node *domain.Node) domain.NodeRef {
	for _, child := range node.Children {
		if childNode, ok := store.nodes[child]; ok && childNode.IsLoading() {
			return child
		}
	}
	return domain.NoRef
}

func (store *Store) childByID(node *domain.Node, id string) domain.NodeRef {
	for _, child := range node.Children {
		if childNode, ok := store.nodes[child]; ok && childNode.ID == id {
			return child
		}
	}
	return domain.NoRef
}

func (store *Store) isAncestor(ancestor, ref domain.NodeRef) bool {
	for current := ref; current != domain.NoRef; {
		if current == ancestor {
			return true
		}
		node, ok := store.nodes[current]
		if !ok {
			return false
		}
		current = node.Parent
	}
	return false
}

func sameConnection(a, b *domain.Node) bool {
	if a.Connection == nil || b.Connection == nil {
		return false
	}
	return a.Connection.ID() == b.Connection.ID()
}

func indexOf(refs []domain.NodeRef, target domain.NodeRef) int {
	for index, ref := range refs {
		if ref == target {
			return index
		}
	}
	return -1
}

func removeAt(refs []domain.NodeRef, index int) []domain.NodeRef {
	out := make([]domain.NodeRef, 0, len(refs)-1)
	out = append(out, refs[:index]...)
	return append(out, refs[index+1:]...)
}
