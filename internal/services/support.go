package services

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"pebble/internal/domain"
)

var (
	ErrUnsupportedServer = errors.New("unsupported server")
	ErrOutsideRoot       = errors.New("resource outside the root collection")
	ErrExists            = errors.New("resource already exists")
	ErrTooLarge          = errors.New("resource too large")
)

const maxReadBytes = 1 << 20

func serverScheme(server string) (string, error) {
	parsed, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parse server %q: %w", server, err)
	}
	if parsed.Scheme == "" {
		return "", fmt.Errorf("%w: %q has no scheme", ErrUnsupportedServer, server)
	}
	return strings.ToLower(parsed.Scheme), nil
}

// relativePath maps a resource name below the root collection to a slash
// separated path relative to it.
func relativePath(resource string) (string, error) {
	if resource != domain.RootCollection && !strings.HasPrefix(resource, domain.RootCollection+"/") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, resource)
	}
	rel := strings.Trim(strings.TrimPrefix(resource, domain.RootCollection), "/")
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrOutsideRoot, resource)
		}
	}
	return rel, nil
}

func sortResources(resources []domain.Resource) {
	sort.SliceStable(resources, func(i, j int) bool {
		if resources[i].Collection != resources[j].Collection {
			return resources[i].Collection
		}
		return resources[i].Name < resources[j].Name
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
