package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/aslgraph/pkg/asl"
)

func contractMachine() *asl.StateMachine {
	return &asl.StateMachine{
		Comment: "contract",
		StartAt: "Fetch",
		States: asl.States{
			"Fetch": &asl.Task{Resource: "arn:aws:lambda:::function:fetch", Next: "Done"},
			"Done":  &asl.Succeed{},
		},
	}
}

// RunArtifactStoreContract runs a suite of tests to verify that an
// ArtifactStore implementation adheres to the interface contract.
func RunArtifactStoreContract(t *testing.T, store ArtifactStore) {
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		artifact := &Artifact{
			Name:       name,
			Machine:    contractMachine(),
			Source:     "entry: Main",
			CompiledAt: time.Now().UTC().Truncate(time.Second),
		}

		err := store.Save(ctx, name, artifact)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, artifact.Name, loaded.Name)
		assert.Equal(t, artifact.Source, loaded.Source)
		assert.True(t, artifact.CompiledAt.Equal(loaded.CompiledAt))
		assert.Equal(t, artifact.Machine, loaded.Machine)
	})

	t.Run("Load Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, &Artifact{Name: name, Machine: contractMachine()}))

		first, err := store.Load(ctx, name)
		require.NoError(t, err)
		first.Machine.States["Done"] = &asl.Fail{Error: "Mutated"}

		second, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.IsType(t, &asl.Succeed{}, second.Machine.States["Done"], "Loaded artifacts must not alias stored data")
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, &Artifact{Name: name, Machine: contractMachine(), Source: "v1"}))
		require.NoError(t, store.Save(ctx, name, &Artifact{Name: name, Machine: contractMachine(), Source: "v2"}))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "v2", loaded.Source)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, &Artifact{Name: name, Machine: contractMachine()}))

		err := store.Delete(ctx, name)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, name)
		assert.ErrorIs(t, err, ErrArtifactNotFound, "Load after Delete should return ErrArtifactNotFound")

		assert.NoError(t, store.Delete(ctx, name), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		_ = store.Save(ctx, id2, &Artifact{Name: id2, Machine: contractMachine()})
		_ = store.Save(ctx, id1, &Artifact{Name: id1, Machine: contractMachine()})

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
		assert.IsNonDecreasing(t, names)
	})
}
