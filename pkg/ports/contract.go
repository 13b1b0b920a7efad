package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot() *domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.Programs[domain.ProgramMain] = []domain.InstructionSnapshot{
		{ID: 1, Kind: domain.KindMoveForward, ConditionID: 2, Condition: "if_coin"},
		{ID: 3, Kind: domain.KindCallSubprogram1},
	}
	snap.Programs[domain.ProgramSub1] = []domain.InstructionSnapshot{
		{ID: 4, Kind: domain.KindTurnRight},
	}
	return snap
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	key := "contract-test-slot-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot()

		err := store.Save(ctx, key, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Nil(t, domain.Diff(snap, loaded), "Loaded snapshot should match the saved one")
		assert.Equal(t, domain.KindCallSubprogram1, loaded.Program(domain.ProgramMain)[1].Kind)
		assert.Equal(t, "if_coin", loaded.Program(domain.ProgramMain)[0].Condition)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, key, contractSnapshot())
		require.NoError(t, err)

		err = store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, contractSnapshot())
		_ = store.Save(ctx, id2, contractSnapshot())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}
