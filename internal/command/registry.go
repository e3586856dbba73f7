package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

const actionPrefix = "pebble.action."

var ErrUnknownCommand = errors.New("unknown command")

// ActionID is the registered command id of a toolbar action.
func ActionID(action string) string {
	return actionPrefix + action
}

type Handler func(ctx context.Context) error

type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds id to handler, replacing any earlier binding.
func (registry *Registry) Register(id string, handler Handler) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.handlers[id] = handler
}

func (registry *Registry) Has(id string) bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	_, ok := registry.handlers[id]
	return ok
}

func (registry *Registry) Execute(ctx context.Context, id string) error {
	registry.mu.RLock()
	handler, ok := registry.handlers[id]
	registry.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	return handler(ctx)
}

func (registry *Registry) IDs() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	ids := make([]string, 0, len(registry.handlers))
	for id := range registry.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
