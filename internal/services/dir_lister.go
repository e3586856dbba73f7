package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"pebble/internal/domain"
)

// DirLister serves file:// servers: the root collection maps to the
// directory named by the server URL.
type DirLister struct {
	ShowHidden bool
}

func NewDirLister() *DirLister {
	return &DirLister{}
}

func (lister *DirLister) List(ctx context.Context, req ListRequest) (ListResult, error) {
	start := time.Now()
	dir, err := lister.resolve(req.Connection, req.Collection)
	if err != nil {
		return ListResult{}, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ListResult{}, fmt.Errorf("list %s: %w", req.Collection, err)
	}
	resources := make([]domain.Resource, 0, len(entries))
	for _, entry := range entries {
		if ctx.Err() != nil {
			return ListResult{}, ctx.Err()
		}
		name := entry.Name()
		if !lister.ShowHidden && isHidden(name) {
			continue
		}
		resource := domain.Resource{
			Name:       domain.JoinResource(req.Collection, name),
			Collection: entry.IsDir(),
		}
		if !entry.IsDir() {
			if info, infoErr := entry.Info(); infoErr == nil {
				resource.Size = info.Size()
			}
			resource.MimeType = mime.TypeByExtension(filepath.Ext(name))
		}
		resources = append(resources, resource)
	}
	sortResources(resources)
	return ListResult{Collection: req.Collection, Resources: resources, Duration: time.Since(start)}, nil
}

func (lister *DirLister) Move(ctx context.Context, req MoveRequest) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	source, err := lister.resolve(req.Connection, req.Source)
	if err != nil {
		return err
	}
	targetDir, err := lister.resolve(req.Connection, req.TargetCollection)
	if err != nil {
		return err
	}
	target := filepath.Join(targetDir, filepath.Base(source))
	if exists(target) {
		return fmt.Errorf("%w: %s", ErrExists, domain.JoinResource(req.TargetCollection, filepath.Base(source)))
	}
	if err := os.Rename(source, target); err != nil {
		return fmt.Errorf("move %s: %w", req.Source, err)
	}
	return nil
}

func (lister *DirLister) Read(ctx context.Context, req ReadRequest) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	path, err := lister.resolve(req.Connection, req.Resource)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Resource, err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxReadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Resource, err)
	}
	if len(data) > maxReadBytes {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, req.Resource)
	}
	return data, nil
}

func (lister *DirLister) resolve(connection domain.Connection, resource string) (string, error) {
	parsed, err := url.Parse(connection.Server)
	if err != nil {
		return "", fmt.Errorf("parse server %q: %w", connection.Server, err)
	}
	if parsed.Scheme != "file" || parsed.Path == "" {
		return "", fmt.Errorf("%w: %s is not a file:// server", ErrUnsupportedServer, connection.Server)
	}
	rel, err := relativePath(resource)
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.FromSlash(parsed.Path), filepath.FromSlash(rel)), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
