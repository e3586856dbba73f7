package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pebble/internal/domain"
)

// Router dispatches each request to the lister registered for the scheme of
// the connection's server URL.
type Router struct {
	mu      sync.RWMutex
	listers map[string]Lister
}

func NewRouter() *Router {
	return &Router{listers: make(map[string]Lister)}
}

// NewDefaultRouter serves file:// from disk and mem:// from the demo
// fixtures, both behind a listing cache.
func NewDefaultRouter(cacheTTL time.Duration, showHidden bool) *Router {
	dir := NewDirLister()
	dir.ShowHidden = showHidden
	router := NewRouter()
	router.Handle("file", NewCachedLister(dir, cacheTTL))
	router.Handle("mem", NewCachedLister(NewDemoLister(), cacheTTL))
	return router
}

func (router *Router) Handle(scheme string, lister Lister) {
	router.mu.Lock()
	defer router.mu.Unlock()
	router.listers[scheme] = lister
}

func (router *Router) Schemes() []string {
	router.mu.RLock()
	defer router.mu.RUnlock()
	schemes := make([]string, 0, len(router.listers))
	for scheme := range router.listers {
		schemes = append(schemes, scheme)
	}
	sort.Strings(schemes)
	return schemes
}

// Supports reports whether a server URL can be handled.
func (router *Router) Supports(server string) bool {
	_, err := router.route(server)
	return err == nil
}

func (router *Router) route(server string) (Lister, error) {
	scheme, err := serverScheme(server)
	if err != nil {
		return nil, err
	}
	router.mu.RLock()
	lister, ok := router.listers[scheme]
	router.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no handler for %s://", ErrUnsupportedServer, scheme)
	}
	return lister, nil
}

func (router *Router) List(ctx context.Context, req ListRequest) (ListResult, error) {
	lister, err := router.route(req.Connection.Server)
	if err != nil {
		return ListResult{}, err
	}
	return lister.List(ctx, req)
}

func (router *Router) Move(ctx context.Context, req MoveRequest) error {
	lister, err := router.route(req.Connection.Server)
	if err != nil {
		return err
	}
	mover, ok := lister.(Mover)
	if !ok {
		return fmt.Errorf("%w: %s cannot move resources", ErrUnsupportedServer, req.Connection.Server)
	}
	return mover.Move(ctx, req)
}

func (router *Router) Read(ctx context.Context, req ReadRequest) ([]byte, error) {
	lister, err := router.route(req.Connection.Server)
	if err != nil {
		return nil, err
	}
	reader, ok := lister.(Reader)
	if !ok {
		return nil, fmt.Errorf("%w: %s cannot read documents", ErrUnsupportedServer, req.Connection.Server)
	}
	return reader.Read(ctx, req)
}

func (router *Router) Invalidate(connection domain.Connection, collection string) {
	lister, err := router.route(connection.Server)
	if err != nil {
		return
	}
	if invalidator, ok := lister.(Invalidator); ok {
		invalidator.Invalidate(connection, collection)
	}
}
