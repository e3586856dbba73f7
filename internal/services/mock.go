package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"pebble/internal/domain"
)

// MockLister keeps collections in memory. It serves mem:// servers and
// backs the tests.
type MockLister struct {
	mu        sync.Mutex
	Delay     time.Duration
	Err       error
	resources map[string][]domain.Resource
	content   map[string][]byte
	calls     map[string]int
}

func NewMockLister() *MockLister {
	return &MockLister{
		resources: make(map[string][]domain.Resource),
		content:   make(map[string][]byte),
		calls:     make(map[string]int),
	}
}

// NewDemoLister returns a lister preloaded with a small database layout.
func NewDemoLister() *MockLister {
	lister := NewMockLister()
	lister.AddCollection("/db/apps")
	lister.AddCollection("/db/apps/dashboard")
	lister.AddDocument("/db/apps/dashboard/index.html", []byte("<html><body>dashboard</body></html>\n"))
	lister.AddDocument("/db/apps/dashboard/controller.xql", []byte("xquery version \"3.1\";\n\"hello\"\n"))
	lister.AddCollection("/db/data")
	lister.AddDocument("/db/data/people.xml", []byte("<people>\n  <person>Ada</person>\n</people>\n"))
	lister.AddDocument("/db/readme.txt", []byte("demo database\n"))
	return lister
}

func (lister *MockLister) AddCollection(name string) {
	lister.add(domain.Resource{Name: name, Collection: true}, nil)
}

func (lister *MockLister) AddDocument(name string, content []byte) {
	lister.add(domain.Resource{Name: name, Size: int64(len(content))}, content)
}

func (lister *MockLister) add(resource domain.Resource, content []byte) {
	lister.mu.Lock()
	defer lister.mu.Unlock()
	parent := parentCollection(resource.Name)
	lister.resources[parent] = append(lister.resources[parent], resource)
	if !resource.Collection {
		lister.content[resource.Name] = content
	}
}

// Calls reports how often a collection has been listed.
func (lister *MockLister) Calls(collection string) int {
	lister.mu.Lock()
	defer lister.mu.Unlock()
	return lister.calls[collection]
}

func (lister *MockLister) List(ctx context.Context, req ListRequest) (ListResult, error) {
	start := time.Now()
	if err := lister.wait(ctx); err != nil {
		return ListResult{}, err
	}
	lister.mu.Lock()
	defer lister.mu.Unlock()
	lister.calls[req.Collection]++
	if lister.Err != nil {
		return ListResult{}, lister.Err
	}
	resources := append([]domain.Resource(nil), lister.resources[req.Collection]...)
	sortResources(resources)
	return ListResult{Collection: req.Collection, Resources: resources, Duration: time.Since(start)}, nil
}

func (lister *MockLister) Move(ctx context.Context, req MoveRequest) error {
	if err := lister.wait(ctx); err != nil {
		return err
	}
	lister.mu.Lock()
	defer lister.mu.Unlock()
	if lister.Err != nil {
		return lister.Err
	}
	parent := parentCollection(req.Source)
	target := domain.JoinResource(req.TargetCollection, domain.BaseName(req.Source))
	for _, existing := range lister.resources[req.TargetCollection] {
		if existing.Name == target {
			return fmt.Errorf("%w: %s", ErrExists, target)
		}
	}
	siblings := lister.resources[parent]
	for index, resource := range siblings {
		if resource.Name != req.Source {
			continue
		}
		lister.resources[parent] = append(siblings[:index:index], siblings[index+1:]...)
		lister.relocate(req.Source, target)
		resource.Name = target
		lister.resources[req.TargetCollection] = append(lister.resources[req.TargetCollection], resource)
		return nil
	}
	return fmt.Errorf("move %s: %w", req.Source, domain.ErrNotFound)
}

func (lister *MockLister) Read(ctx context.Context, req ReadRequest) ([]byte, error) {
	if err := lister.wait(ctx); err != nil {
		return nil, err
	}
	lister.mu.Lock()
	defer lister.mu.Unlock()
	content, ok := lister.content[req.Resource]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", req.Resource, domain.ErrNotFound)
	}
	return append([]byte(nil), content...), nil
}

// relocate rewrites descendants of a moved collection.
func (lister *MockLister) relocate(from, to string) {
	moved := make(map[string][]domain.Resource)
	for collection, resources := range lister.resources {
		if collection != from && !strings.HasPrefix(collection, from+"/") {
			continue
		}
		renamed := make([]domain.Resource, 0, len(resources))
		for _, resource := range resources {
			resource.Name = to + strings.TrimPrefix(resource.Name, from)
			renamed = append(renamed, resource)
		}
		delete(lister.resources, collection)
		moved[to+strings.TrimPrefix(collection, from)] = renamed
	}
	for collection, resources := range moved {
		lister.resources[collection] = resources
	}
	renamed := make(map[string][]byte)
	for name, content := range lister.content {
		if strings.HasPrefix(name, from+"/") || name == from {
			delete(lister.content, name)
			renamed[to+strings.TrimPrefix(name, from)] = content
		}
	}
	for name, content := range renamed {
		lister.content[name] = content
	}
}

func (lister *MockLister) wait(ctx context.Context) error {
	if lister.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(lister.Delay):
		return nil
	}
}

func parentCollection(name string) string {
	index := strings.LastIndex(strings.TrimRight(name, "/"), "/")
	if index <= 0 {
		return "/"
	}
	return name[:index]
}
