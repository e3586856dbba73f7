package services

import (
	"context"

	"pebble/internal/domain"
)

// Lister lists the resources of one collection on a server.
type Lister interface {
	List(ctx context.Context, req ListRequest) (ListResult, error)
}

// Mover is implemented by listers whose servers support moving resources.
type Mover interface {
	Move(ctx context.Context, req MoveRequest) error
}

// Reader is implemented by listers that can return document content.
type Reader interface {
	Read(ctx context.Context, req ReadRequest) ([]byte, error)
}

type Invalidator interface {
	Invalidate(connection domain.Connection, collection string)
}
