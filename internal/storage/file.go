package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
)

// FileBackend stores objects as files beneath a root directory. Writes are
// atomic, and directories left empty by deletions are removed.
type FileBackend struct {
	root string
}

// NewFileBackend creates a backend rooted at the given directory, creating
// it if necessary.
func NewFileBackend(root string) (*FileBackend, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root %s: %w", root, err)
	}

	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root %s: %w", absRoot, err)
	}

	return &FileBackend{root: absRoot}, nil
}

func (b *FileBackend) objectPath(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

func (b *FileBackend) Put(_ context.Context, key string, data []byte) error {
	target := b.objectPath(key)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", key, err)
	}

	if err := renameio.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.objectPath(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (b *FileBackend) Delete(_ context.Context, key string) error {
	target := b.objectPath(key)

	err := os.Remove(target)
	if os.IsNotExist(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}

	b.removeEmptyParents(filepath.Dir(target))
	return nil
}

// removeEmptyParents deletes directories left empty by a removal, walking
// up towards (but never including) the root.
func (b *FileBackend) removeEmptyParents(dir string) {
	for dir != b.root && strings.HasPrefix(dir, b.root) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (b *FileBackend) List(_ context.Context, prefix string) ([]string, error) {
	start := b.objectPath(prefix)

	var names []string
	err := filepath.WalkDir(start, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			names = append(names, d.Name())
		}
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}

	sort.Strings(names)
	return names, nil
}

func (b *FileBackend) ListPrefixes(_ context.Context, prefix string) ([]string, error) {
	entries, err := os.ReadDir(b.objectPath(prefix))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", prefix, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}
