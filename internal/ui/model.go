package ui

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"pebble/internal/clierr"
	"pebble/internal/core"
	"pebble/internal/dialog"
	"pebble/internal/domain"
	"pebble/internal/state"
	"pebble/pkg/logging"
)

type Options struct {
	Dialogs     *dialog.Broker
	Logs        <-chan logging.LogEntry
	Theme       string
	KeyBindings map[string]string
	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error
}

type Model struct {
	core      *core.Core
	store     *state.Store
	dialogs   *dialog.Broker
	logs      <-chan logging.LogEntry
	changes   chan struct{}
	clipboard func(string) error
	ctx       context.Context
	cancel    context.CancelFunc

	keys      KeyMap
	theme     string
	showHelp  bool
	showProps bool
	status    string
	statusErr bool
	width     int
	height    int
	cursor    int
	viewTop   int
	busy      int
	ticking   bool
	spinner   spinner.Model

	dragging domain.NodeRef

	confirm *dialog.Request
	form    *connectionForm

	previewing   bool
	previewTitle string
	preview      viewport.Model
}

func NewModel(controller *core.Core, opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	keys, unknown := DefaultKeyMap().WithOverrides(opts.KeyBindings)
	for _, action := range unknown {
		logging.Warn("ui", "unknown key binding action %q", action)
	}
	copyText := opts.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	model := Model{
		core:      controller,
		store:     controller.Store(),
		dialogs:   opts.Dialogs,
		logs:      opts.Logs,
		changes:   make(chan struct{}, 1),
		clipboard: copyText,
		ctx:       ctx,
		cancel:    cancel,
		keys:      keys,
		theme:     opts.Theme,
		status:    "Ready",
		width:     100,
		height:    30,
		spinner:   spin,
		preview:   viewport.New(40, 10),
	}
	changes := model.changes
	model.store.Subscribe(func(state.Event) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	return model
}

func (model Model) WithStatus(message string) Model {
	if message != "" {
		model.status = message
	}
	return model
}

func (model Model) Init() tea.Cmd {
	return tea.Batch(model.waitForDialog(), model.waitForChange(), model.waitForLog())
}

func (model Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return model.handleKey(typed)
	case tea.WindowSizeMsg:
		model.width = typed.Width
		model.height = typed.Height
		model.resizePreview()
		model.ensureCursorVisible()
		return model, nil
	case treeChangedMsg:
		model.syncCursor()
		spin := model.startSpinner()
		return model, tea.Batch(model.waitForChange(), spin)
	case dialogRequestMsg:
		return model.openDialog(typed.request)
	case opResultMsg:
		model.busy--
		model.setResult(typed.status, typed.err)
		model.syncCursor()
		return model, nil
	case openResultMsg:
		model.busy--
		if typed.err != nil || typed.content == nil {
			model.setResult("", typed.err)
			return model, nil
		}
		model.previewing = true
		model.previewTitle = typed.node.Link
		model.resizePreview()
		model.preview.SetContent(string(typed.content))
		model.preview.GotoTop()
		model.setResult(fmt.Sprintf("Opened %s (%d bytes)", typed.node.Name, len(typed.content)), nil)
		return model, nil
	case logEntryMsg:
		entry := typed.entry
		message := entry.Message
		if entry.Err != nil {
			message = fmt.Sprintf("%s: %s", message, clierr.Pretty(entry.Err))
		}
		model.status = fmt.Sprintf("%s %s", entry.Level, message)
		model.statusErr = true
		return model, model.waitForLog()
	case spinner.TickMsg:
		if model.busy <= 0 && !model.hasLoadingRow() {
			model.ticking = false
			return model, nil
		}
		var cmd tea.Cmd
		model.spinner, cmd = model.spinner.Update(typed)
		return model, cmd
	default:
		return model, nil
	}
}

func (model Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if model.form != nil {
		return model.handleFormKey(msg)
	}
	if model.confirm != nil {
		return model.handleConfirmKey(msg)
	}
	if key.Matches(msg, model.keys.Quit) {
		model.cancel()
		return model, tea.Quit
	}
	if model.previewing {
		if msg.Type == tea.KeyEsc || key.Matches(msg, model.keys.Left) {
			model.previewing = false
			return model, nil
		}
		var cmd tea.Cmd
		model.preview, cmd = model.preview.Update(msg)
		return model, cmd
	}

	switch {
	case key.Matches(msg, model.keys.Help):
		model.showHelp = !model.showHelp
		return model, nil
	case msg.Type == tea.KeyEsc:
		model.showHelp = false
		if model.dragging != domain.NoRef {
			model.dragging = domain.NoRef
			model.setResult("Move cancelled", nil)
		}
		return model, nil
	case key.Matches(msg, model.keys.Up):
		return model.moveCursor(-1)
	case key.Matches(msg, model.keys.Down):
		return model.moveCursor(1)
	case key.Matches(msg, model.keys.Enter):
		return model.activate(true)
	case key.Matches(msg, model.keys.Right):
		return model.activate(false)
	case key.Matches(msg, model.keys.Left):
		return model.collapseOrParent()
	case key.Matches(msg, model.keys.New):
		return model.execute(core.ActionNewConnection, "")
	case key.Matches(msg, model.keys.Delete):
		return model.deleteConnection()
	case key.Matches(msg, model.keys.Reload):
		return model.reload()
	case key.Matches(msg, model.keys.Move):
		return model.pickUp()
	case key.Matches(msg, model.keys.Drop):
		return model.drop()
	case key.Matches(msg, model.keys.Copy):
		return model.copyLink()
	case key.Matches(msg, model.keys.Properties):
		model.showProps = !model.showProps
		return model, nil
	default:
		return model, nil
	}
}

func (model Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		model.form.request.Dismiss()
		model.form = nil
		model.cancel()
		return model, tea.Quit
	}
	form, cmd, done := model.form.update(msg)
	if done {
		model.form = nil
		return model, model.waitForDialog()
	}
	model.form = &form
	return model, cmd
}

func (model Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, model.keys.Confirm):
		model.confirm.Accept()
	case key.Matches(msg, model.keys.Cancel):
		model.confirm.Dismiss()
	case msg.Type == tea.KeyCtrlC:
		model.confirm.Dismiss()
		model.confirm = nil
		model.cancel()
		return model, tea.Quit
	default:
		return model, nil
	}
	model.confirm = nil
	return model, model.waitForDialog()
}

func (model Model) openDialog(request *dialog.Request) (tea.Model, tea.Cmd) {
	model.showHelp = false
	switch request.Kind {
	case dialog.KindConnection:
		form, cmd := newConnectionForm(request)
		model.form = &form
		return model, cmd
	default:
		model.confirm = request
		return model, nil
	}
}

func (model Model) current() (domain.Node, bool) {
	visible := model.store.Visible()
	if model.cursor < 0 || model.cursor >= len(visible) {
		return domain.Node{}, false
	}
	return visible[model.cursor].Node, true
}

func (model Model) moveCursor(delta int) (tea.Model, tea.Cmd) {
	visible := model.store.Visible()
	next := clamp(model.cursor+delta, 0, maxInt(len(visible)-1, 0))
	model.cursor = next
	model.selectCurrent()
	model.ensureCursorVisible()
	return model, nil
}

func (model *Model) selectCurrent() {
	node, ok := model.current()
	if !ok {
		return
	}
	if err := model.core.Select(node.Ref); err != nil {
		model.setResult("", err)
	}
}

// activate expands or opens the node under the cursor. With toggle set an
// expanded node collapses, otherwise the cursor moves into it.
func (model Model) activate(toggle bool) (tea.Model, tea.Cmd) {
	node, ok := model.current()
	if !ok {
		return model, nil
	}
	switch {
	case node.IsToolbar():
		return model.execute(core.ActionNewConnection, "")
	case node.IsDocument():
		return model.open(node)
	case !node.IsContainer():
		return model, nil
	case node.Expanded && toggle:
		if err := model.core.Collapse(node.Ref); err != nil {
			model.setResult("", err)
		}
		return model, nil
	case node.Expanded:
		if len(node.Children) > 0 {
			return model.moveCursor(1)
		}
		return model, nil
	}
	ref := node.Ref
	status := "Expanded " + node.Name
	if node.IsConnection() {
		status = "Connected to " + node.Connection.Server
		return model.run(status, func(ctx context.Context) error {
			return model.core.Connect(ctx, ref)
		})
	}
	return model.run(status, func(ctx context.Context) error {
		return model.core.Expand(ctx, ref)
	})
}

func (model Model) collapseOrParent() (tea.Model, tea.Cmd) {
	node, ok := model.current()
	if !ok {
		return model, nil
	}
	if node.IsContainer() && node.Expanded {
		if err := model.core.Collapse(node.Ref); err != nil {
			model.setResult("", err)
		}
		return model, nil
	}
	if index := model.store.IndexOf(node.Parent); index >= 0 {
		model.cursor = index
		model.selectCurrent()
		model.ensureCursorVisible()
	}
	return model, nil
}

func (model Model) deleteConnection() (tea.Model, tea.Cmd) {
	node, ok := model.current()
	if !ok || !node.IsConnection() {
		model.setResult("Select a connection to delete", nil)
		return model, nil
	}
	model.selectCurrent()
	ref := node.Ref
	return model.run("Deleted "+node.Name, func(ctx context.Context) error {
		if err := model.core.Execute(ctx, core.ActionDeleteConnection); err != nil {
			return err
		}
		if model.core.IsConnection(ref) {
			return errKept
		}
		return nil
	})
}

func (model Model) reload() (tea.Model, tea.Cmd) {
	node, ok := model.current()
	if !ok {
		return model, nil
	}
	ref := node.Ref
	return model.run("Reloaded "+node.Name, func(ctx context.Context) error {
		return model.core.Reload(ctx, ref)
	})
}

func (model Model) pickUp() (tea.Model, tea.Cmd) {
	node, ok := model.current()
	if !ok || !node.Draggable() {
		model.setResult("Only collections and documents can be moved", nil)
		return model, nil
	}
	model.dragging = node.Ref
	model.setResult(fmt.Sprintf("Moving %s: choose a collection and press %s", node.Name, model.keys.Drop.Help().Key), nil)
	return model, nil
}

func (model Model) drop() (tea.Model, tea.Cmd) {
	if model.dragging == domain.NoRef {
		return model, nil
	}
	target, ok := model.current()
	if !ok {
		return model, nil
	}
	if target.IsDocument() {
		target, ok = model.store.Node(target.Parent)
		if !ok {
			return model, nil
		}
	}
	item := model.dragging
	model.dragging = domain.NoRef
	targetRef := target.Ref
	return model.run("Moved to "+target.Name, func(ctx context.Context) error {
		return model.core.Move(ctx, item, targetRef)
	})
}

func (model Model) copyLink() (tea.Model, tea.Cmd) {
	node, ok := model.current()
	if !ok {
		return model, nil
	}
	text := node.Link
	if node.IsConnection() {
		text = node.Connection.Server
	}
	if text == "" {
		return model, nil
	}
	if err := model.clipboard(text); err != nil {
		model.setResult("", err)
		return model, nil
	}
	model.setResult("Copied "+text, nil)
	return model, nil
}

func (model Model) execute(action, status string) (tea.Model, tea.Cmd) {
	return model.run(status, func(ctx context.Context) error {
		return model.core.Execute(ctx, action)
	})
}

func (model Model) open(node domain.Node) (tea.Model, tea.Cmd) {
	model.busy++
	ctx := model.ctx
	controller := model.core
	spin := model.startSpinner()
	return model, tea.Batch(func() tea.Msg {
		content, err := controller.Open(ctx, node.Ref)
		return openResultMsg{node: node, content: content, err: err}
	}, spin)
}

// run executes a controller operation off the update loop.
func (model Model) run(status string, op func(ctx context.Context) error) (tea.Model, tea.Cmd) {
	model.busy++
	ctx := model.ctx
	spin := model.startSpinner()
	return model, tea.Batch(func() tea.Msg {
		return opResultMsg{status: status, err: op(ctx)}
	}, spin)
}

func (model *Model) startSpinner() tea.Cmd {
	if model.ticking || (model.busy <= 0 && !model.hasLoadingRow()) {
		return nil
	}
	model.ticking = true
	return model.spinner.Tick
}

func (model Model) hasLoadingRow() bool {
	for _, item := range model.store.Visible() {
		if item.Node.IsLoading() {
			return true
		}
	}
	return false
}

func (model *Model) setResult(status string, err error) {
	switch {
	case err == errKept:
		model.status = "Connection kept"
		model.statusErr = false
	case err != nil:
		model.status = clierr.Pretty(err)
		model.statusErr = true
	case status != "":
		model.status = status
		model.statusErr = false
	}
}

func (model Model) waitForDialog() tea.Cmd {
	if model.dialogs == nil {
		return nil
	}
	requests := model.dialogs.Requests()
	ctx := model.ctx
	return func() tea.Msg {
		select {
		case request := <-requests:
			return dialogRequestMsg{request: request}
		case <-ctx.Done():
			return nil
		}
	}
}

func (model Model) waitForChange() tea.Cmd {
	changes := model.changes
	ctx := model.ctx
	return func() tea.Msg {
		select {
		case <-changes:
			return treeChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (model Model) waitForLog() tea.Cmd {
	if model.logs == nil {
		return nil
	}
	logs := model.logs
	ctx := model.ctx
	return func() tea.Msg {
		select {
		case entry, ok := <-logs:
			if !ok {
				return nil
			}
			return logEntryMsg{entry: entry}
		case <-ctx.Done():
			return nil
		}
	}
}

// syncCursor keeps the cursor on the selected node after the tree changed
// underneath it.
func (model *Model) syncCursor() {
	if selected, ok := model.store.Selected(); ok {
		if index := model.store.IndexOf(selected.Ref); index >= 0 {
			model.cursor = index
		}
	}
	model.ensureCursorVisible()
}

func (model *Model) ensureCursorVisible() {
	visible := model.store.Visible()
	if len(visible) == 0 {
		model.cursor = 0
		model.viewTop = 0
		return
	}
	model.cursor = clamp(model.cursor, 0, len(visible)-1)
	listHeight := model.listHeight()
	if listHeight <= 0 {
		return
	}
	if model.cursor < model.viewTop {
		model.viewTop = model.cursor
	}
	if model.cursor >= model.viewTop+listHeight {
		model.viewTop = model.cursor - listHeight + 1
	}
	model.viewTop = clamp(model.viewTop, 0, maxInt(len(visible)-listHeight, 0))
}

func (model *Model) listHeight() int {
	return model.height - 6
}

func (model *Model) resizePreview() {
	_, rightWidth, showRight := splitPanels(model.width)
	if !showRight {
		rightWidth = model.width
	}
	model.preview.Width = maxInt(rightWidth-4, 10)
	model.preview.Height = maxInt(model.listHeight()-2, 3)
}

type keptError struct{}

func (keptError) Error() string { return "connection kept" }

var errKept error = keptError{}
