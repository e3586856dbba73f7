package ui

import (
	"pebble/internal/dialog"
	"pebble/internal/domain"
	"pebble/pkg/logging"
)

type opResultMsg struct {
	status string
	err    error
}

type openResultMsg struct {
	node    domain.Node
	content []byte
	err     error
}

type dialogRequestMsg struct {
	request *dialog.Request
}

type treeChangedMsg struct{}

type logEntryMsg struct {
	entry logging.LogEntry
}
