package dialog

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"pebble/internal/domain"
	"pebble/pkg/logging"
)

type Kind int

const (
	KindConnection Kind = iota
	KindConfirm
)

// ConnectionDefaults pre-fill the new connection form.
type ConnectionDefaults struct {
	Name     string `yaml:"name"`
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
}

func DefaultConnectionDefaults() ConnectionDefaults {
	return ConnectionDefaults{Name: "Localhost", Server: "http://localhost:8080"}
}

type ConnectionResult struct {
	Connection  domain.Connection
	AutoConnect bool
}

type ConfirmOptions struct {
	Title  string
	Lines  []string
	OK     string
	Cancel string
}

// Dialogs is what the controller needs from the user. Both calls block until
// the user answers; a cancelled context counts as cancel.
type Dialogs interface {
	NewConnection(ctx context.Context, defaults ConnectionDefaults) (ConnectionResult, bool)
	Confirm(ctx context.Context, opts ConfirmOptions) bool
}

type reply struct {
	ok         bool
	connection ConnectionResult
}

// Request is a pending dialog. The UI shows it and answers exactly once;
// later answers are ignored.
type Request struct {
	ID       string
	Kind     Kind
	Title    string
	Lines    []string
	OK       string
	Cancel   string
	Defaults ConnectionDefaults

	once  sync.Once
	reply chan reply
}

func newRequest(kind Kind) *Request {
	return &Request{ID: uuid.NewString(), Kind: kind, reply: make(chan reply, 1)}
}

func (request *Request) answer(value reply) {
	request.once.Do(func() {
		request.reply <- value
	})
}

// Accept confirms a confirmation dialog.
func (request *Request) Accept() {
	request.answer(reply{ok: true})
}

// Submit answers a connection dialog.
func (request *Request) Submit(result ConnectionResult) {
	request.answer(reply{ok: true, connection: result})
}

func (request *Request) Dismiss() {
	request.answer(reply{})
}

// Broker hands dialog requests from the controller to the UI.
type Broker struct {
	requests chan *Request
}

func NewBroker() *Broker {
	return &Broker{requests: make(chan *Request)}
}

func (broker *Broker) Requests() <-chan *Request {
	return broker.requests
}

func (broker *Broker) NewConnection(ctx context.Context, defaults ConnectionDefaults) (ConnectionResult, bool) {
	request := newRequest(KindConnection)
	request.Title = "New Connection"
	request.Defaults = defaults
	value := broker.ask(ctx, request)
	return value.connection, value.ok
}

func (broker *Broker) Confirm(ctx context.Context, opts ConfirmOptions) bool {
	request := newRequest(KindConfirm)
	request.Title = opts.Title
	request.Lines = append([]string(nil), opts.Lines...)
	request.OK = opts.OK
	request.Cancel = opts.Cancel
	if request.OK == "" {
		request.OK = "OK"
	}
	if request.Cancel == "" {
		request.Cancel = "Cancel"
	}
	return broker.ask(ctx, request).ok
}

func (broker *Broker) ask(ctx context.Context, request *Request) reply {
	logging.Debug("dialog", "open %s (%s)", request.Title, request.ID)
	select {
	case broker.requests <- request:
	case <-ctx.Done():
		return reply{}
	}
	select {
	case value := <-request.reply:
		logging.Debug("dialog", "closed %s (%s) ok=%t", request.Title, request.ID, value.ok)
		return value
	case <-ctx.Done():
		request.Dismiss()
		return reply{}
	}
}
