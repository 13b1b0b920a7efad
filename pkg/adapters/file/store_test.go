package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/mazecode/pkg/adapters/file"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunSnapshotStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := file.New(dir)

	require.NoError(t, store.Save(ctx, "level-1", domain.NewSnapshot()))
	_, err := os.Stat(filepath.Join(dir, "level-1.json"))
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"level-1"}, keys)
}

func TestFileStore_InvalidKey(t *testing.T) {
	ctx := context.Background()
	store := file.New(t.TempDir())

	assert.Error(t, store.Save(ctx, "", domain.NewSnapshot()))
	assert.Error(t, store.Save(ctx, "../escape", domain.NewSnapshot()))
	_, err := store.Load(ctx, "a/b")
	assert.Error(t, err)
}

func TestFileStore_MissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nope"))
	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}
