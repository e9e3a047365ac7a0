package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	relPath, err := store.Store(ctx, "Invoice.PDF", strings.NewReader("pdf-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(relPath, "tickets/"), "path %q must live under tickets/", relPath)
	assert.True(t, strings.HasSuffix(relPath, ".pdf"), "extension is preserved lowercased, got %q", relPath)

	file, err := store.Open(ctx, relPath)
	require.NoError(t, err)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.NoError(t, file.Close())
	assert.Equal(t, "pdf-bytes", string(data))
}

func TestLocalStoreRandomizesNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Store(ctx, "same.png", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := store.Store(ctx, "same.png", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestLocalStoreRemove(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	relPath, err := store.Store(ctx, "gone.doc", strings.NewReader("bytes"))
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, relPath))

	_, err = store.Open(ctx, relPath)
	assert.Error(t, err)

	// Removing again is not an error.
	assert.NoError(t, store.Remove(ctx, relPath))
}

func TestLocalStoreRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Open(ctx, "../outside.txt")
	assert.Error(t, err)
	assert.Error(t, store.Remove(ctx, "/etc/passwd"))
}
