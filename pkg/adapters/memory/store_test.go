package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/mazecode/pkg/adapters/memory"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	snap := domain.NewSnapshot()
	snap.Programs[domain.ProgramMain] = []domain.InstructionSnapshot{{ID: 1, Kind: domain.KindMoveForward}}
	require.NoError(t, store.Save(ctx, "slot", snap))

	snap.Programs[domain.ProgramMain][0].Kind = domain.KindTurnLeft

	loaded, err := store.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Equal(t, domain.KindMoveForward, loaded.Program(domain.ProgramMain)[0].Kind)

	loaded.Programs[domain.ProgramMain] = nil
	again, err := store.Load(ctx, "slot")
	require.NoError(t, err)
	assert.Len(t, again.Program(domain.ProgramMain), 1)
}
