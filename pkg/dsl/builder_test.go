package dsl

import (
	"testing"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Programs(t *testing.T) {
	snap, err := New().
		Main(func(p *ProgramBuilder) {
			p.Forward().If("if_free").Call1().Left()
		}).
		Sub1(func(p *ProgramBuilder) {
			p.Right().Back()
		}).
		Build()
	require.NoError(t, err)

	main := snap.Program(domain.ProgramMain)
	require.Len(t, main, 3)
	assert.Equal(t, domain.KindMoveForward, main[0].Kind)
	assert.Equal(t, domain.KindCallSubprogram1, main[1].Kind)
	assert.Equal(t, "if_free", main[1].Condition)
	assert.Equal(t, domain.InstructionID(2), main[1].ID)
	assert.Equal(t, domain.InstructionID(3), main[1].ConditionID)
	assert.Equal(t, domain.InstructionID(4), main[2].ID)

	sub1 := snap.Program(domain.ProgramSub1)
	require.Len(t, sub1, 2)
	assert.Equal(t, domain.InstructionID(5), sub1[0].ID)
	assert.Empty(t, snap.Program(domain.ProgramSub2))
	assert.Equal(t, 5, snap.Len())
}

func TestBuilder_Tokens(t *testing.T) {
	b := New()
	b.Program(domain.ProgramSub2).Tokens("move-forward", "turn-left[if_blocked]")
	snap, err := b.Build()
	require.NoError(t, err)

	sub2 := snap.Program(domain.ProgramSub2)
	require.Len(t, sub2, 2)
	assert.Equal(t, domain.KindTurnLeft, sub2[1].Kind)
	assert.Equal(t, "if_blocked", sub2[1].Condition)
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
		err   error
	}{
		{
			name:  "Unknown program",
			build: func(b *Builder) { b.Program("sub3").Forward() },
			err:   domain.ErrUnknownProgram,
		},
		{
			name:  "Top-level condition",
			build: func(b *Builder) { b.Program(domain.ProgramMain).Add(domain.KindCondition) },
			err:   domain.ErrInvalidEdit,
		},
		{
			name:  "Dangling condition",
			build: func(b *Builder) { b.Program(domain.ProgramMain).Forward().If("if_free") },
			err:   domain.ErrInvalidEdit,
		},
		{
			name:  "Double condition",
			build: func(b *Builder) { b.Program(domain.ProgramMain).If("if_free").If("if_blocked").Forward() },
			err:   domain.ErrInvalidEdit,
		},
		{
			name:  "Unknown kind",
			build: func(b *Builder) { b.Program(domain.ProgramMain).Add(domain.Kind(99)) },
			err:   domain.ErrUnknownKind,
		},
		{
			name:  "Bad token",
			build: func(b *Builder) { b.Program(domain.ProgramMain).Tokens("jump") },
			err:   domain.ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			tt.build(b)
			_, err := b.Build()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBuilder_MustBuildPanics(t *testing.T) {
	assert.Panics(t, func() {
		b := New()
		b.Program(domain.ProgramMain).If("if_free")
		b.MustBuild()
	})
}
