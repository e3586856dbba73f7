package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"pebble/internal/clierr"
	"pebble/internal/dialog"
	"pebble/internal/domain"
)

const (
	fieldName = iota
	fieldServer
	fieldUsername
	fieldPassword
	fieldAutoConnect
	fieldCount
)

var fieldLabels = [...]string{"Name", "Server", "Username", "Password"}

// connectionForm is the modal behind a connection dialog request.
type connectionForm struct {
	request     *dialog.Request
	inputs      []textinput.Model
	focus       int
	autoConnect bool
	err         string
}

func newConnectionForm(request *dialog.Request) (connectionForm, tea.Cmd) {
	form := connectionForm{request: request, inputs: make([]textinput.Model, fieldAutoConnect)}
	defaults := []string{request.Defaults.Name, request.Defaults.Server, request.Defaults.Username, ""}
	placeholders := []string{"Localhost", "http://localhost:8080", "admin", ""}
	for index := range form.inputs {
		input := textinput.New()
		input.Prompt = ""
		input.CharLimit = 256
		input.Placeholder = placeholders[index]
		input.SetValue(defaults[index])
		if index == fieldPassword {
			input.EchoMode = textinput.EchoPassword
			input.EchoCharacter = '•'
		}
		form.inputs[index] = input
	}
	// Start on the first field the defaults left empty.
	for index, value := range defaults {
		if value == "" && index != fieldPassword {
			form.focus = index
			break
		}
	}
	return form, form.inputs[form.focus].Focus()
}

func (form connectionForm) connection() domain.Connection {
	return domain.Connection{
		Name:     strings.TrimSpace(form.inputs[fieldName].Value()),
		Server:   strings.TrimSpace(form.inputs[fieldServer].Value()),
		Username: strings.TrimSpace(form.inputs[fieldUsername].Value()),
		Password: form.inputs[fieldPassword].Value(),
	}
}

func (form connectionForm) setFocus(index int) (connectionForm, tea.Cmd) {
	if form.focus < fieldAutoConnect {
		form.inputs[form.focus].Blur()
	}
	form.focus = (index + fieldCount) % fieldCount
	if form.focus < fieldAutoConnect {
		return form, form.inputs[form.focus].Focus()
	}
	return form, nil
}

// update handles a key while the form is open. done is true once the
// request was answered.
func (form connectionForm) update(msg tea.KeyMsg) (connectionForm, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyEsc:
		form.request.Dismiss()
		return form, nil, true
	case tea.KeyTab, tea.KeyDown:
		next, cmd := form.setFocus(form.focus + 1)
		return next, cmd, false
	case tea.KeyShiftTab, tea.KeyUp:
		next, cmd := form.setFocus(form.focus - 1)
		return next, cmd, false
	case tea.KeyEnter:
		conn := form.connection()
		if err := conn.Validate(); err != nil {
			form.err = clierr.Pretty(err)
			return form, nil, false
		}
		form.request.Submit(dialog.ConnectionResult{Connection: conn, AutoConnect: form.autoConnect})
		return form, nil, true
	}
	if form.focus == fieldAutoConnect {
		if msg.Type == tea.KeySpace || msg.String() == "x" {
			form.autoConnect = !form.autoConnect
		}
		return form, nil, false
	}
	var cmd tea.Cmd
	form.inputs[form.focus], cmd = form.inputs[form.focus].Update(msg)
	form.err = ""
	return form, cmd, false
}

func (form connectionForm) view(styles uiStyles, width int) string {
	lines := []string{styles.headerStyle.Render(form.request.Title), ""}
	for index, input := range form.inputs {
		label := fmt.Sprintf("%-9s", fieldLabels[index])
		if index == form.focus {
			label = styles.cursorStyle.Render(label)
		}
		lines = append(lines, label+" "+input.View())
	}
	check := "[ ]"
	if form.autoConnect {
		check = "[x]"
	}
	autoLine := check + " Connect now"
	if form.focus == fieldAutoConnect {
		autoLine = styles.cursorStyle.Render(autoLine)
	}
	lines = append(lines, "", autoLine)
	if form.err != "" {
		lines = append(lines, "", styles.warnStyle.Render(truncate(form.err, width)))
	}
	lines = append(lines, "", styles.mutedStyle.Render("tab next  shift+tab back  space toggle  enter create  esc cancel"))
	return strings.Join(lines, "\n")
}
