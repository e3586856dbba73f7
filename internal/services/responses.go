package services

import (
	"time"

	"pebble/internal/domain"
)

type ListResult struct {
	Collection string
	Resources  []domain.Resource
	Duration   time.Duration
	Cached     bool
}
