package ui

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pebble/internal/core"
	"pebble/internal/dialog"
	"pebble/internal/domain"
	"pebble/internal/services"
	"pebble/internal/state"
)

var demo = domain.Connection{Name: "Demo", Server: "mem://demo", Username: "admin"}

func newTestModel(t *testing.T, connections ...domain.Connection) Model {
	t.Helper()
	broker := dialog.NewBroker()
	controller := core.New(core.Options{
		Store:    state.NewStore(),
		Dialogs:  broker,
		Lister:   services.NewDefaultRouter(time.Minute, false),
		Defaults: dialog.ConnectionDefaults{Name: "Demo", Server: "mem://demo"},
	})
	controller.CreateRoot()
	require.NoError(t, controller.RestoreConnections(connections))
	return NewModel(controller, Options{
		Dialogs:   broker,
		Clipboard: func(string) error { return nil },
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func waitFor(t *testing.T, tm *teatest.TestModel, text string) {
	t.Helper()
	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte(text))
	}, teatest.WithDuration(3*time.Second))
}

func finalModel(t *testing.T, tm *teatest.TestModel) Model {
	t.Helper()
	tm.Send(runes("q"))
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)
	require.True(t, ok)
	return final
}

func TestJourney_EmptyTreeInvitesNewConnection(t *testing.T) {
	tm := teatest.NewTestModel(t, newTestModel(t), teatest.WithInitialTermSize(120, 40))

	waitFor(t, tm, "press n to add a connection")

	final := finalModel(t, tm)
	assert.True(t, final.core.IsEmpty())
}

func TestJourney_NewConnectionForm(t *testing.T) {
	tm := teatest.NewTestModel(t, newTestModel(t), teatest.WithInitialTermSize(120, 40))
	waitFor(t, tm, "press n to add a connection")

	tm.Send(runes("n"))
	waitFor(t, tm, "New Connection")

	// Defaults fill name and server; the cursor starts on the username.
	tm.Type("admin")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Demo  mem://demo")

	final := finalModel(t, tm)
	connections := final.core.Connections()
	require.Len(t, connections, 1)
	assert.Equal(t, "admin", connections[0].Username)
	assert.Nil(t, final.form)
}

func TestJourney_NewConnectionFormRejectsInvalidServer(t *testing.T) {
	tm := teatest.NewTestModel(t, newTestModel(t), teatest.WithInitialTermSize(120, 40))
	waitFor(t, tm, "press n to add a connection")

	tm.Send(runes("n"))
	waitFor(t, tm, "New Connection")
	tm.Type("admin")
	// Back to the server field and clear it.
	tm.Send(tea.KeyMsg{Type: tea.KeyShiftTab})
	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlU})
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "Invalid")

	tm.Send(tea.KeyMsg{Type: tea.KeyEsc})

	final := finalModel(t, tm)
	assert.Nil(t, final.form)
	assert.True(t, final.core.IsEmpty())
}

func TestJourney_DeleteConnectionDeclined(t *testing.T) {
	tm := teatest.NewTestModel(t, newTestModel(t, demo), teatest.WithInitialTermSize(120, 40))
	waitFor(t, tm, "Demo  mem://demo")

	tm.Send(runes("j"))
	tm.Send(runes("d"))
	waitFor(t, tm, "Delete connection")
	tm.Send(runes("n"))
	waitFor(t, tm, "Connection kept")

	final := finalModel(t, tm)
	assert.Len(t, final.core.Connections(), 1)
	selected, ok := final.store.Selected()
	require.True(t, ok)
	assert.Equal(t, "Demo", selected.Name)
}

func TestJourney_DeleteConnectionConfirmed(t *testing.T) {
	tm := teatest.NewTestModel(t, newTestModel(t, demo), teatest.WithInitialTermSize(120, 40))
	waitFor(t, tm, "Demo  mem://demo")

	tm.Send(runes("j"))
	tm.Send(runes("d"))
	waitFor(t, tm, "Delete connection")
	tm.Send(runes("y"))
	waitFor(t, tm, "Deleted Demo")

	final := finalModel(t, tm)
	assert.True(t, final.core.IsEmpty())
}

func TestJourney_ConnectListsRootCollection(t *testing.T) {
	tm := teatest.NewTestModel(t, newTestModel(t, demo), teatest.WithInitialTermSize(120, 40))
	waitFor(t, tm, "Demo  mem://demo")

	tm.Send(runes("j"))
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
	waitFor(t, tm, "readme.txt")

	final := finalModel(t, tm)
	connection, ok := final.store.FindChild(final.store.Root(), demo.ID())
	require.True(t, ok)
	assert.True(t, connection.Expanded)
	assert.True(t, connection.Loaded)
	assert.Len(t, connection.Children, 3)
}

func TestPickUpRejectsConnections(t *testing.T) {
	model := newTestModel(t, demo)
	model.cursor = 1

	updated, _ := model.Update(runes("m"))
	model = updated.(Model)

	assert.Equal(t, domain.NoRef, model.dragging)
	assert.Contains(t, model.status, "Only collections and documents")
}

func TestCopyLinkUsesServerForConnections(t *testing.T) {
	model := newTestModel(t, demo)
	var copied string
	model.clipboard = func(text string) error {
		copied = text
		return nil
	}
	model.cursor = 1

	updated, _ := model.Update(runes("c"))
	model = updated.(Model)

	assert.Equal(t, "mem://demo", copied)
	assert.Equal(t, "Copied mem://demo", model.status)
}

func TestMoveCursorSelectsNode(t *testing.T) {
	model := newTestModel(t, demo)

	updated, _ := model.Update(runes("j"))
	model = updated.(Model)

	selected, ok := model.store.Selected()
	require.True(t, ok)
	assert.Equal(t, demo.ID(), selected.ID)

	// The cursor stops at the last row.
	updated, _ = model.Update(runes("j"))
	model = updated.(Model)
	assert.Equal(t, 1, model.cursor)
}

func TestHelpToggle(t *testing.T) {
	model := newTestModel(t)

	updated, _ := model.Update(runes("?"))
	model = updated.(Model)
	assert.Contains(t, model.View(), "Pebble Help")

	updated, _ = model.Update(runes("?"))
	model = updated.(Model)
	assert.NotContains(t, model.View(), "Pebble Help")
}
