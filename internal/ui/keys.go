package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Right      key.Binding
	Left       key.Binding
	New        key.Binding
	Delete     key.Binding
	Reload     key.Binding
	Move       key.Binding
	Drop       key.Binding
	Copy       key.Binding
	Properties key.Binding
	Confirm    key.Binding
	Cancel     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "expand/collapse, open"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "expand"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse, parent"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new connection"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete connection"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Move: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "pick up for move"),
		),
		Drop: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "drop here"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy link"),
		),
		Properties: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "properties"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "cancel"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// bindings maps action names, as used in the keyBindings config section, to
// the bindings they override.
func (keys *KeyMap) bindings() map[string]*key.Binding {
	return map[string]*key.Binding{
		"up":         &keys.Up,
		"down":       &keys.Down,
		"enter":      &keys.Enter,
		"right":      &keys.Right,
		"left":       &keys.Left,
		"new":        &keys.New,
		"delete":     &keys.Delete,
		"reload":     &keys.Reload,
		"move":       &keys.Move,
		"drop":       &keys.Drop,
		"copy":       &keys.Copy,
		"properties": &keys.Properties,
		"confirm":    &keys.Confirm,
		"cancel":     &keys.Cancel,
		"help":       &keys.Help,
		"quit":       &keys.Quit,
	}
}

// WithOverrides replaces the keys of the named actions. Values are comma
// separated key names; unknown actions are returned so they can be reported.
func (keys KeyMap) WithOverrides(overrides map[string]string) (KeyMap, []string) {
	var unknown []string
	bindings := keys.bindings()
	for action, value := range overrides {
		binding, ok := bindings[strings.ToLower(action)]
		if !ok {
			unknown = append(unknown, action)
			continue
		}
		parts := strings.Split(value, ",")
		names := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				names = append(names, part)
			}
		}
		if len(names) == 0 {
			continue
		}
		binding.SetKeys(names...)
		binding.SetHelp(strings.Join(names, "/"), binding.Help().Desc)
	}
	return keys, unknown
}

func (keys KeyMap) helpBindings() []key.Binding {
	return []key.Binding{
		keys.Up, keys.Down, keys.Enter, keys.Right, keys.Left,
		keys.New, keys.Delete, keys.Reload, keys.Move, keys.Drop,
		keys.Copy, keys.Properties, keys.Confirm, keys.Cancel, keys.Help, keys.Quit,
	}
}
