package services

import "pebble/internal/domain"

type ListRequest struct {
	Connection domain.Connection
	Collection string
}

type MoveRequest struct {
	Connection       domain.Connection
	Source           string
	TargetCollection string
}

type ReadRequest struct {
	Connection domain.Connection
	Resource   string
}
