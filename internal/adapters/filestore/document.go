// Package filestore persists the diagram and the lot registry as whole JSON
// documents, rewritten on every mutation.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"go.uber.org/zap"
)

// document is one JSON file holding a value of type T. A missing, empty or
// syntactically broken file reads as the empty value and is rewritten as
// such. Well-formed JSON that does not decode into T is reported and the
// file is left alone.
type document[T any] struct {
	mu    sync.Mutex
	fs    afs.Service
	url   string
	empty func() *T
	valid func(*T) bool
}

func newDocument[T any](ctx context.Context, fs afs.Service, dir, name string, empty func() *T, valid func(*T) bool) (*document[T], error) {
	if dir == "" {
		return nil, fmt.Errorf("filestore: base directory cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("filestore: file name cannot be empty")
	}

	base := url.Normalize(dir, file.Scheme)
	exists, _ := fs.Exists(ctx, base)
	if !exists {
		if err := fs.Create(ctx, base, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("filestore: create base directory %q: %w", dir, err)
		}
	}

	return &document[T]{
		fs:    fs,
		url:   url.Join(base, name),
		empty: empty,
		valid: valid,
	}, nil
}

// init makes sure the file exists and holds a well-formed document.
func (d *document[T]) init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.read(ctx)
	return err
}

// read loads the document. Callers hold d.mu.
func (d *document[T]) read(ctx context.Context) (*T, error) {
	exists, err := d.fs.Exists(ctx, d.url)
	if err != nil {
		return nil, fmt.Errorf("filestore: check %s: %w", d.url, err)
	}
	if !exists {
		return d.reset(ctx, "missing")
	}

	data, err := d.fs.DownloadWithURL(ctx, d.url)
	if err != nil {
		return nil, fmt.Errorf("filestore: read %s: %w", d.url, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return d.empty(), nil
	}

	if !json.Valid(data) {
		zap.L().Warn("unparsable document, recreating", zap.String("url", d.url))
		return d.reset(ctx, "unparsable")
	}

	v := d.empty()
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("filestore: decode %s: %w", d.url, err)
	}
	if d.valid != nil && !d.valid(v) {
		zap.L().Warn("incomplete document, recreating", zap.String("url", d.url))
		return d.reset(ctx, "incomplete")
	}
	return v, nil
}

func (d *document[T]) reset(ctx context.Context, reason string) (*T, error) {
	v := d.empty()
	if err := d.write(ctx, v); err != nil {
		return nil, fmt.Errorf("filestore: recreate %s document: %w", reason, err)
	}
	return v, nil
}

// write replaces the file contents. Callers hold d.mu.
func (d *document[T]) write(ctx context.Context, v *T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: marshal %s: %w", d.url, err)
	}
	if err := d.fs.Upload(ctx, d.url, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("filestore: write %s: %w", d.url, err)
	}
	return nil
}

// update runs a read-modify-write cycle under the document lock.
func (d *document[T]) update(ctx context.Context, fn func(v *T) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.read(ctx)
	if err != nil {
		return err
	}
	if err := fn(v); err != nil {
		return err
	}
	return d.write(ctx, v)
}

func (d *document[T]) load(ctx context.Context) (*T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read(ctx)
}
