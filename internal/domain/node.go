package domain

// NodeRef identifies a node inside a tree store. Refs are never reused, so a
// ref taken before the tree was replaced simply stops resolving.
type NodeRef uint64

const NoRef NodeRef = 0

const (
	RootID    = "pebble-connections-view-root"
	RootName  = "Pebble Connections Root"
	ToolbarID = "pebble-toolbar"
	LoadingID = "pebble-loading"
)

type Node struct {
	Ref        NodeRef
	ID         string
	Name       string
	Kind       Kind
	Parent     NodeRef
	Children   []NodeRef
	Selected   bool
	Expanded   bool
	Loaded     bool
	Link       string
	Resource   string
	Connection *Connection
}

func (node Node) IsRoot() bool       { return node.Kind == KindRoot }
func (node Node) IsToolbar() bool    { return node.Kind == KindToolbar }
func (node Node) IsConnection() bool { return node.Kind == KindConnection }
func (node Node) IsCollection() bool { return node.Kind == KindCollection }
func (node Node) IsDocument() bool   { return node.Kind == KindDocument }
func (node Node) IsLoading() bool    { return node.Kind == KindLoading }

// IsItem reports whether the node is a server resource (collection or document).
func (node Node) IsItem() bool {
	return node.Kind == KindCollection || node.Kind == KindDocument
}

func (node Node) IsContainer() bool {
	return node.Kind.IsContainer()
}

func (node Node) Draggable() bool {
	return node.IsItem()
}

// CollectionPath is the server collection a node lists: the root collection
// for a connection, the node's own resource for a collection.
func (node Node) CollectionPath() string {
	if node.IsConnection() {
		return RootCollection
	}
	return node.Resource
}

// Clone returns a copy that does not share the children slice.
func (node Node) Clone() Node {
	clone := node
	if node.Children != nil {
		clone.Children = make([]NodeRef, len(node.Children))
		copy(clone.Children, node.Children)
	}
	return clone
}

func NewConnectionNode(connection Connection, expanded bool) Node {
	conn := connection
	return Node{
		ID:         connection.ID(),
		Name:       connection.Name,
		Kind:       KindConnection,
		Children:   []NodeRef{},
		Expanded:   expanded,
		Connection: &conn,
	}
}

func NewCollectionNode(connection *Connection, resource Resource) Node {
	return Node{
		ID:         resource.Name,
		Name:       resource.BaseName(),
		Kind:       KindCollection,
		Children:   []NodeRef{},
		Link:       Link(resource.Name),
		Resource:   resource.Name,
		Connection: connection,
	}
}

func NewDocumentNode(connection *Connection, resource Resource) Node {
	return Node{
		ID:         resource.Name,
		Name:       resource.BaseName(),
		Kind:       KindDocument,
		Link:       Link(resource.Name),
		Resource:   resource.Name,
		Connection: connection,
	}
}

func NewToolbarNode() Node {
	return Node{ID: ToolbarID, Name: "Pebble Toolbar", Kind: KindToolbar}
}

func NewLoadingNode() Node {
	return Node{ID: LoadingID, Name: "Loading...", Kind: KindLoading}
}

// NewRootNode is the synthetic, invisible root of a tree.
func NewRootNode() Node {
	return Node{ID: RootID, Name: RootName, Kind: KindRoot, Children: []NodeRef{}}
}
