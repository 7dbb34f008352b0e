package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aslgraph/pkg/adapters/file"
	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunArtifactStoreContract(t, store)
}

func TestFileStore_Layout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "machines")
	store := file.New(dir)
	ctx := context.Background()

	names, err := store.List(ctx)
	require.NoError(t, err, "a missing directory lists as empty")
	assert.Empty(t, names)

	artifact := &ports.Artifact{
		Name:    "orders",
		Machine: &asl.StateMachine{StartAt: "Only", States: asl.States{"Only": &asl.Succeed{}}},
	}
	require.NoError(t, store.Save(ctx, "orders", artifact))

	data, err := os.ReadFile(filepath.Join(dir, "orders.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"StartAt": "Only"`)

	// Leftovers of an interrupted save and unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".orders-123.tmp"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))

	names, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders"}, names)
}

func TestFileStore_InvalidNames(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	for _, name := range []string{"", "../escape", `a\b`, ".hidden"} {
		t.Run(name, func(t *testing.T) {
			err := store.Save(ctx, name, &ports.Artifact{})
			assert.ErrorIs(t, err, ports.ErrInvalidName)

			_, err = store.Load(ctx, name)
			assert.ErrorIs(t, err, ports.ErrInvalidName)
		})
	}
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join(".aslgraph", "machines"), file.New("").BasePath)
}
