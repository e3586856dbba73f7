package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pebble/internal/command"
	"pebble/internal/dialog"
	"pebble/internal/domain"
	"pebble/internal/services"
	"pebble/internal/state"
)

var localhost = domain.Connection{Name: "Localhost", Server: "http://localhost:8080", Username: "admin"}

var demo = domain.Connection{Name: "Demo", Server: "mem://demo", Username: "admin"}

type fakeDialogs struct {
	mu           sync.Mutex
	result       dialog.ConnectionResult
	accept       bool
	confirm      bool
	newCalls     int
	confirmCalls int
	lastConfirm  dialog.ConfirmOptions
	lastDefaults dialog.ConnectionDefaults
}

func (fake *fakeDialogs) NewConnection(ctx context.Context, defaults dialog.ConnectionDefaults) (dialog.ConnectionResult, bool) {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.newCalls++
	fake.lastDefaults = defaults
	return fake.result, fake.accept
}

func (fake *fakeDialogs) Confirm(ctx context.Context, opts dialog.ConfirmOptions) bool {
	fake.mu.Lock()
	defer fake.mu.Unlock()
	fake.confirmCalls++
	fake.lastConfirm = opts
	return fake.confirm
}

func newCore(t *testing.T, dialogs dialog.Dialogs, lister services.Lister) *Core {
	t.Helper()
	return New(Options{
		Store:    state.NewStore(),
		Dialogs:  dialogs,
		Lister:   lister,
		Defaults: dialog.DefaultConnectionDefaults(),
	})
}

func connectDemo(t *testing.T, core *Core) domain.NodeRef {
	t.Helper()
	ref, err := core.AddConnection(demo, false)
	require.NoError(t, err)
	require.NoError(t, core.Connect(context.Background(), ref))
	return ref
}

func childRef(t *testing.T, core *Core, parent domain.NodeRef, id string) domain.NodeRef {
	t.Helper()
	node, ok := core.Store().FindChild(parent, id)
	require.True(t, ok, "missing %s", id)
	return node.Ref
}

func childIDs(core *Core, parent domain.NodeRef) []string {
	ids := []string{}
	for _, child := range core.Store().Children(parent) {
		ids = append(ids, child.ID)
	}
	return ids
}

func TestNewConnectionAddsCollapsedConnection(t *testing.T) {
	dialogs := &fakeDialogs{
		accept: true,
		result: dialog.ConnectionResult{Connection: localhost, AutoConnect: false},
	}
	core := newCore(t, dialogs, nil)

	ref, err := core.NewConnection(context.Background())
	require.NoError(t, err)

	children := core.Store().Children(core.Store().Root())
	require.Len(t, children, 2)
	node := children[1]
	assert.Equal(t, ref, node.Ref)
	assert.Equal(t, "Localhost", node.Name)
	assert.Equal(t, "admin-http://localhost:8080", node.ID)
	assert.False(t, node.Expanded)
	assert.False(t, core.Store().HasLoadingPlaceholder(ref))
	assert.Empty(t, node.Children)
	assert.Equal(t, "http://localhost:8080", dialogs.lastDefaults.Server)
	assert.Equal(t, "Localhost", dialogs.lastDefaults.Name)
}

func TestNewConnectionCancelled(t *testing.T) {
	dialogs := &fakeDialogs{accept: false}
	core := newCore(t, dialogs, nil)

	ref, err := core.NewConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.NoRef, ref)
	assert.True(t, core.IsEmpty())
	assert.Equal(t, 1, dialogs.newCalls)
}

func TestNewConnectionRejectsInvalidParameters(t *testing.T) {
	dialogs := &fakeDialogs{accept: true, result: dialog.ConnectionResult{Connection: domain.Connection{Name: "x", Server: "localhost"}}}
	core := newCore(t, dialogs, nil)

	_, err := core.NewConnection(context.Background())
	assert.Error(t, err)
	assert.True(t, core.IsEmpty())
}

func TestNewConnectionDuplicate(t *testing.T) {
	dialogs := &fakeDialogs{accept: true, result: dialog.ConnectionResult{Connection: localhost}}
	core := newCore(t, dialogs, nil)

	_, err := core.NewConnection(context.Background())
	require.NoError(t, err)
	_, err = core.NewConnection(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidParent)
	assert.Len(t, core.Connections(), 1)
}

func TestNewConnectionAutoConnect(t *testing.T) {
	dialogs := &fakeDialogs{accept: true, result: dialog.ConnectionResult{Connection: demo, AutoConnect: true}}
	lister := services.NewDemoLister()
	core := newCore(t, dialogs, lister)

	ref, err := core.NewConnection(context.Background())
	require.NoError(t, err)

	node, ok := core.Store().Node(ref)
	require.True(t, ok)
	assert.True(t, node.Expanded)
	assert.True(t, node.Loaded)
	assert.False(t, core.Store().HasLoadingPlaceholder(ref))
	assert.Equal(t, []string{"/db/apps", "/db/data", "/db/readme.txt"}, childIDs(core, ref))
	assert.NoError(t, core.Store().Check())
}

func TestDeleteConnectionWithoutSelection(t *testing.T) {
	dialogs := &fakeDialogs{confirm: true}
	core := newCore(t, dialogs, nil)
	_, err := core.AddConnection(localhost, false)
	require.NoError(t, err)

	require.NoError(t, core.DeleteConnection(context.Background()))

	assert.Equal(t, 0, dialogs.confirmCalls)
	assert.Len(t, core.Connections(), 1)
}

func TestDeleteConnectionIgnoresItemSelection(t *testing.T) {
	dialogs := &fakeDialogs{confirm: true}
	core := newCore(t, dialogs, services.NewDemoLister())
	conn := connectDemo(t, core)
	require.NoError(t, core.Select(childRef(t, core, conn, "/db/apps")))

	require.NoError(t, core.DeleteConnection(context.Background()))
	assert.Equal(t, 0, dialogs.confirmCalls)
}

func TestDeleteConnectionDeclined(t *testing.T) {
	dialogs := &fakeDialogs{confirm: false}
	core := newCore(t, dialogs, nil)
	ref, err := core.AddConnection(localhost, false)
	require.NoError(t, err)
	require.NoError(t, core.Select(ref))

	require.NoError(t, core.DeleteConnection(context.Background()))

	assert.Equal(t, 1, dialogs.confirmCalls)
	selected, ok := core.Store().Selected()
	require.True(t, ok)
	assert.Equal(t, ref, selected.Ref)
	assert.Len(t, core.Connections(), 1)
}

func TestDeleteConnectionConfirmed(t *testing.T) {
	dialogs := &fakeDialogs{confirm: true}
	core := newCore(t, dialogs, nil)
	ref, err := core.AddConnection(localhost, false)
	require.NoError(t, err)
	require.NoError(t, core.Select(ref))

	require.NoError(t, core.DeleteConnection(context.Background()))

	assert.True(t, core.IsEmpty())
	_, ok := core.Store().Selected()
	assert.False(t, ok)
	assert.Equal(t, "Delete", dialogs.lastConfirm.OK)
	assert.Equal(t, "Keep", dialogs.lastConfirm.Cancel)
	assert.Contains(t, dialogs.lastConfirm.Lines, "Name: Localhost")
	assert.Contains(t, dialogs.lastConfirm.Lines, "Server: http://localhost:8080")
	assert.Contains(t, dialogs.lastConfirm.Lines, "Username: admin")
}

func TestAddCollection(t *testing.T) {
	core := newCore(t, nil, nil)
	conn, err := core.AddConnection(localhost, false)
	require.NoError(t, err)
	parent, _ := core.Store().Node(conn)

	ref, err := core.AddCollection(conn, parent.Connection, domain.Resource{Name: "/db/apps", Collection: true})
	require.NoError(t, err)

	node, ok := core.Store().Node(ref)
	require.True(t, ok)
	assert.Equal(t, "apps", node.Name)
	assert.Equal(t, "/db/apps", node.ID)
	assert.Equal(t, "pebble:/db/apps", node.Link)
	assert.Empty(t, node.Children)
	assert.NotNil(t, node.Children)
	assert.False(t, node.Expanded)
	assert.Equal(t, conn, node.Parent)
	assert.Equal(t, []string{"/db/apps"}, childIDs(core, conn))
}

func TestLoadUnload(t *testing.T) {
	core := newCore(t, nil, nil)
	conn, err := core.AddConnection(localhost, false)
	require.NoError(t, err)
	parent, _ := core.Store().Node(conn)
	_, err = core.AddDocument(conn, parent.Connection, domain.Resource{Name: "/db/a.xml"})
	require.NoError(t, err)

	assert.ErrorIs(t, core.Unload(conn), domain.ErrInvalidState)
	require.NoError(t, core.Load(conn))
	assert.ErrorIs(t, core.Load(conn), domain.ErrInvalidState)
	require.NoError(t, core.Unload(conn))
	assert.Equal(t, []string{"/db/a.xml"}, childIDs(core, conn))
}

func TestExpandDoesNotRefetchLoadedNode(t *testing.T) {
	lister := services.NewDemoLister()
	core := newCore(t, nil, lister)
	conn := connectDemo(t, core)

	require.NoError(t, core.Collapse(conn))
	node, _ := core.Store().Node(conn)
	assert.False(t, node.Expanded)
	assert.Len(t, node.Children, 3)

	require.NoError(t, core.Expand(context.Background(), conn))
	assert.Equal(t, 1, lister.Calls("/db"))
}

func TestExpandFailureLeavesNodeCollapsed(t *testing.T) {
	lister := services.NewDemoLister()
	lister.Err = errors.New("connection refused")
	core := newCore(t, nil, lister)
	ref, err := core.AddConnection(demo, false)
	require.NoError(t, err)

	err = core.Expand(context.Background(), ref)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	node, _ := core.Store().Node(ref)
	assert.False(t, node.Expanded)
	assert.False(t, node.Loaded)
	assert.False(t, core.Store().HasLoadingPlaceholder(ref))
	assert.Empty(t, node.Children)
}

// listerFunc serves listings from a function.
type listerFunc func(ctx context.Context, req services.ListRequest) (services.ListResult, error)

func (fn listerFunc) List(ctx context.Context, req services.ListRequest) (services.ListResult, error) {
	return fn(ctx, req)
}

func TestExpandRecoversFromBadListing(t *testing.T) {
	calls := 0
	resources := []domain.Resource{{Name: "/db/ok.xml"}, {Name: ""}}
	lister := listerFunc(func(ctx context.Context, req services.ListRequest) (services.ListResult, error) {
		calls++
		return services.ListResult{Collection: req.Collection, Resources: resources}, nil
	})
	core := newCore(t, nil, lister)
	ref, err := core.AddConnection(demo, false)
	require.NoError(t, err)

	require.Error(t, core.Expand(context.Background(), ref))
	node, _ := core.Store().Node(ref)
	assert.False(t, node.Expanded)
	assert.False(t, node.Loaded)
	assert.False(t, core.Store().HasLoadingPlaceholder(ref))
	assert.Empty(t, node.Children)
	assert.NoError(t, core.Store().Check())

	require.Error(t, core.Reload(context.Background(), ref))
	assert.Equal(t, 2, calls)
	assert.False(t, core.Store().HasLoadingPlaceholder(ref))

	resources = resources[:1]
	require.NoError(t, core.Expand(context.Background(), ref))
	assert.Equal(t, 3, calls)
	node, _ = core.Store().Node(ref)
	assert.True(t, node.Loaded)
	assert.Equal(t, []string{"/db/ok.xml"}, childIDs(core, ref))
}

func TestReloadSkipsLoadingNode(t *testing.T) {
	lister := services.NewDemoLister()
	core := newCore(t, nil, lister)
	ref, err := core.AddConnection(demo, false)
	require.NoError(t, err)
	require.NoError(t, core.Load(ref))

	require.NoError(t, core.Reload(context.Background(), ref))

	assert.Equal(t, 0, lister.Calls("/db"))
	assert.True(t, core.Store().HasLoadingPlaceholder(ref))
	require.NoError(t, core.Unload(ref))
	assert.NoError(t, core.Store().Check())
}

func TestConcurrentExpandListsOnce(t *testing.T) {
	lister := services.NewDemoLister()
	lister.Delay = 20 * time.Millisecond
	core := newCore(t, nil, lister)
	ref, err := core.AddConnection(demo, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, core.Expand(context.Background(), ref))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, lister.Calls("/db"))
	assert.Equal(t, []string{"/db/apps", "/db/data", "/db/readme.txt"}, childIDs(core, ref))
	assert.NoError(t, core.Store().Check())
}

func TestReloadRefetches(t *testing.T) {
	lister := services.NewDemoLister()
	core := newCore(t, nil, lister)
	conn := connectDemo(t, core)
	lister.AddDocument("/db/new.xml", []byte("<new/>"))

	require.NoError(t, core.Reload(context.Background(), childRef(t, core, conn, "/db/readme.txt")))

	assert.Equal(t, 2, lister.Calls("/db"))
	assert.Contains(t, childIDs(core, conn), "/db/new.xml")
}

func TestMoveUpdatesServerAndTree(t *testing.T) {
	lister := services.NewDemoLister()
	core := newCore(t, nil, lister)
	conn := connectDemo(t, core)
	apps := childRef(t, core, conn, "/db/apps")
	data := childRef(t, core, conn, "/db/data")
	require.NoError(t, core.Expand(context.Background(), apps))
	dashboard := childRef(t, core, apps, "/db/apps/dashboard")

	require.NoError(t, core.Move(context.Background(), dashboard, data))

	node, _ := core.Store().Node(dashboard)
	assert.Equal(t, data, node.Parent)
	assert.Equal(t, "/db/data/dashboard", node.Resource)

	require.NoError(t, core.Expand(context.Background(), data))
	assert.Equal(t, []string{"/db/data/dashboard", "/db/data/people.xml"}, childIDs(core, data))
	assert.NoError(t, core.Store().Check())
}

func TestMoveRejected(t *testing.T) {
	lister := services.NewDemoLister()
	core := newCore(t, nil, lister)
	conn := connectDemo(t, core)
	apps := childRef(t, core, conn, "/db/apps")
	readme := childRef(t, core, conn, "/db/readme.txt")

	assert.NoError(t, core.Move(context.Background(), conn, apps))
	assert.ErrorIs(t, core.Move(context.Background(), apps, readme), domain.ErrInvalidParent)

	node, _ := core.Store().Node(apps)
	assert.Equal(t, conn, node.Parent)
}

func TestOpenDocument(t *testing.T) {
	core := newCore(t, nil, services.NewDemoLister())
	conn := connectDemo(t, core)

	data, err := core.Open(context.Background(), childRef(t, core, conn, "/db/readme.txt"))
	require.NoError(t, err)
	assert.Equal(t, "demo database\n", string(data))

	data, err = core.Open(context.Background(), childRef(t, core, conn, "/db/apps"))
	assert.NoError(t, err)
	assert.Nil(t, data)
}

func TestExecute(t *testing.T) {
	dialogs := &fakeDialogs{accept: true, result: dialog.ConnectionResult{Connection: localhost}}
	core := newCore(t, dialogs, nil)

	require.NoError(t, core.Execute(context.Background(), ActionNewConnection))
	assert.Len(t, core.Connections(), 1)
	require.NoError(t, core.Execute(context.Background(), ActionRefresh))
	assert.ErrorIs(t, core.Execute(context.Background(), "missing"), command.ErrUnknownCommand)
	assert.Contains(t, core.Commands().IDs(), "pebble.action.delete-connection")
}

func TestRestoreConnections(t *testing.T) {
	core := newCore(t, nil, nil)
	withPassword := localhost
	withPassword.Password = "secret"

	require.NoError(t, core.RestoreConnections([]domain.Connection{withPassword, localhost, demo, {Name: "broken"}}))

	connections := core.Connections()
	require.Len(t, connections, 2)
	assert.Equal(t, "Localhost", connections[0].Name)
	assert.Empty(t, connections[0].Password)
	assert.Equal(t, demo, connections[1])
}

func TestSelectIgnoresStaleRefs(t *testing.T) {
	core := newCore(t, nil, nil)
	ref, err := core.AddConnection(localhost, false)
	require.NoError(t, err)
	core.CreateRoot()

	assert.NoError(t, core.Select(ref))
	_, ok := core.Store().Selected()
	assert.False(t, ok)
	assert.False(t, core.IsConnection(ref))
}

func TestAddToolbarIsIdempotent(t *testing.T) {
	core := newCore(t, nil, nil)

	ref, err := core.AddToolbar()
	require.NoError(t, err)
	assert.Equal(t, core.Store().Toolbar(), ref)
	assert.Len(t, core.Store().Children(core.Store().Root()), 1)
}
