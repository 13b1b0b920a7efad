package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/dsl"
	"github.com/aretw0/mazecode/pkg/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLevel(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, ValidateLevel(writeLevel(t, dir, corridorLevel)))

	bad := writeLevel(t, dir, "name: bad\ngrid: {width: 2, height: 1}\nagent: {x: 5, y: 0, facing: sideways}\nprograms:\n  main:\n    - jump\n")
	err := ValidateLevel(bad)
	require.Error(t, err)
	assert.GreaterOrEqual(t, len(level.ValidationErrors(err)), 2)
}

func TestGraphLevel(t *testing.T) {
	path := writeLevel(t, t.TempDir(), corridorLevel)

	out, err := GraphLevel(context.Background(), path, false)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, "-.-> subprogram_1")
	assert.NotContains(t, out, "classDef")

	out, err = GraphLevel(context.Background(), path, true)
	require.NoError(t, err)
	assert.Contains(t, out, "visited;")
}

func TestWriteSave(t *testing.T) {
	ctx := context.Background()
	saves, closeSaves, err := OpenSaves(ctx, StoreOptions{Kind: StoreMemory}, logging.NewNop())
	require.NoError(t, err)
	defer closeSaves()

	var list bytes.Buffer
	require.NoError(t, WriteSaveList(ctx, &list, saves))
	assert.Equal(t, "No saves found.\n", list.String())

	snap := dsl.New().
		Main(func(p *dsl.ProgramBuilder) { p.If("if_free").Forward().Call1() }).
		Sub1(func(p *dsl.ProgramBuilder) { p.Left() }).
		MustBuild()
	require.NoError(t, saves.Save(ctx, "mine", snap))

	var out bytes.Buffer
	require.NoError(t, WriteSave(ctx, &out, saves, "mine"))
	assert.Contains(t, out.String(), "saved_at:")
	assert.Contains(t, out.String(), "  main:\n    - move-forward[if_free]\n    - call-subprogram-1\n")
	assert.Contains(t, out.String(), "  subprogram-1:\n    - turn-left\n")

	list.Reset()
	require.NoError(t, WriteSaveList(ctx, &list, saves))
	assert.Equal(t, "Saves:\n- mine\n", list.String())

	assert.ErrorIs(t, WriteSave(ctx, &out, saves, "nope"), domain.ErrSnapshotNotFound)
}
