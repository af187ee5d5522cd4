package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	file, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   file,
	}
}

func TestBackendPutGetDelete(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, backend.Put(ctx, "events/a.json", []byte("one")))

			data, err := backend.Get(ctx, "events/a.json")
			require.NoError(t, err)
			assert.Equal(t, []byte("one"), data)

			// Overwrite.
			require.NoError(t, backend.Put(ctx, "events/a.json", []byte("two")))
			data, err = backend.Get(ctx, "events/a.json")
			require.NoError(t, err)
			assert.Equal(t, []byte("two"), data)

			require.NoError(t, backend.Delete(ctx, "events/a.json"))

			_, err = backend.Get(ctx, "events/a.json")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackendGetMissing(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := backend.Get(context.Background(), "events/nope.json")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackendDeleteMissing(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := backend.Delete(context.Background(), "events/nope.json")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackendList(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, backend.Put(ctx, "events/b.json", nil))
			require.NoError(t, backend.Put(ctx, "events/a.json", nil))
			require.NoError(t, backend.Put(ctx, "segments/cam/x.ts", nil))

			names, err := backend.List(ctx, "events")
			require.NoError(t, err)
			assert.Equal(t, []string{"a.json", "b.json"}, names)
		})
	}
}

func TestBackendListEmptyPrefix(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			names, err := backend.List(context.Background(), "events")
			require.NoError(t, err)
			assert.Empty(t, names)
		})
	}
}

func TestBackendListPrefixes(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, backend.Put(ctx, "segments/front/a.ts", nil))
			require.NoError(t, backend.Put(ctx, "segments/back/a.ts", nil))
			require.NoError(t, backend.Put(ctx, "segments/back/b.ts", nil))
			require.NoError(t, backend.Put(ctx, "events/a.json", nil))

			cameras, err := backend.ListPrefixes(ctx, "segments")
			require.NoError(t, err)
			assert.Equal(t, []string{"back", "front"}, cameras)
		})
	}
}

func TestFileBackendCleansEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	backend, err := NewFileBackend(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "segments/front/a.ts", []byte("x")))
	require.NoError(t, backend.Delete(ctx, "segments/front/a.ts"))

	_, err = os.Stat(filepath.Join(root, "segments", "front"))
	assert.True(t, os.IsNotExist(err))

	// The root itself survives.
	_, err = os.Stat(root)
	assert.NoError(t, err)
}

func TestFileBackendAtomicWriteVisibleContent(t *testing.T) {
	root := t.TempDir()
	backend, err := NewFileBackend(root)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, backend.Put(ctx, "events/a.json", []byte("{}")))

	data, err := os.ReadFile(filepath.Join(root, "events", "a.json"))
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), data)
}

func TestOpenSchemes(t *testing.T) {
	ctx := context.Background()

	backend, err := Open(ctx, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, backend)

	backend, err = Open(ctx, "file://"+t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &FileBackend{}, backend)

	_, err = Open(ctx, "gopher://example.com")
	assert.Error(t, err)
}
