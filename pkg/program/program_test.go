package program_test

import (
	"math/rand"
	"testing"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(p *program.Program) []domain.Kind {
	out := []domain.Kind{}
	for _, instr := range p.Instructions() {
		out = append(out, instr.Kind)
	}
	return out
}

// assertIndexConsistent checks conditionalIndex[i] != nil <=> instructions[i].condition != nil.
func assertIndexConsistent(t *testing.T, ws *program.Workspace) {
	t.Helper()
	require.NoError(t, ws.Check())
	for _, p := range ws.Programs() {
		for i, instr := range p.Instructions() {
			cond := p.Conditional(i)
			if instr.Condition() == nil {
				assert.Nil(t, cond, "%s[%d] should not be indexed", p.Name, i)
				continue
			}
			if assert.NotNil(t, cond, "%s[%d] should be indexed", p.Name, i) {
				assert.Equal(t, instr.Condition().ID, cond.ID)
			}
		}
	}
}

func TestProgram_AddAndRemove(t *testing.T) {
	ws := program.NewWorkspace()
	main := ws.Main()

	fwd := ws.New(domain.KindMoveForward)
	left := ws.New(domain.KindTurnLeft)
	right := ws.New(domain.KindTurnRight)

	require.NoError(t, main.Add(fwd, -1))
	require.NoError(t, main.Add(right, -1))
	require.NoError(t, main.Add(left, 1))

	assert.Equal(t, []domain.Kind{domain.KindMoveForward, domain.KindTurnLeft, domain.KindTurnRight}, kinds(main))
	assert.Equal(t, 1, main.IndexOf(left))
	assert.Equal(t, main, left.Owner())

	require.NoError(t, main.RemoveInstruction(left))
	assert.Equal(t, []domain.Kind{domain.KindMoveForward, domain.KindTurnRight}, kinds(main))
	assert.Nil(t, left.Owner())
	assert.False(t, left.Removed(), "removal from a program keeps the instruction in the scene")

	t.Run("Removing an absent instruction is a no-op", func(t *testing.T) {
		require.NoError(t, main.RemoveInstruction(left))
		assert.Equal(t, 2, main.Len())
	})

	t.Run("Out of range index appends", func(t *testing.T) {
		require.NoError(t, main.Add(left, 99))
		assert.Equal(t, 2, main.IndexOf(left))
	})

	t.Run("Adding an owned instruction moves it", func(t *testing.T) {
		sub := ws.Program(domain.ProgramSub1)
		require.NoError(t, sub.Add(fwd, -1))
		assert.Equal(t, -1, main.IndexOf(fwd))
		assert.Equal(t, 0, sub.IndexOf(fwd))
		assertIndexConsistent(t, ws)
	})

	t.Run("Conditions are not top-level", func(t *testing.T) {
		err := main.Add(ws.NewCondition("if_coin"), -1)
		assert.ErrorIs(t, err, domain.ErrInvalidEdit)
	})
}

func TestProgram_ConditionalIndexShifts(t *testing.T) {
	ws := program.NewWorkspace()
	main := ws.Main()

	a := ws.New(domain.KindMoveForward)
	b := ws.New(domain.KindTurnLeft)
	require.NoError(t, main.Add(a, -1))
	require.NoError(t, main.Add(b, -1))

	cond := ws.NewCondition("if_coin")
	require.NoError(t, main.SetConditionalAt(1, cond))
	assert.Equal(t, map[int]domain.InstructionID{1: cond.ID}, main.ConditionalIndex())

	// insert before the host: index moves up
	c := ws.New(domain.KindMoveBack)
	require.NoError(t, main.Add(c, 0))
	assert.Equal(t, map[int]domain.InstructionID{2: cond.ID}, main.ConditionalIndex())
	assert.Equal(t, 2, main.IndexOf(cond), "a condition reports its host position")
	assert.Equal(t, 2, cond.Index())

	// remove before the host: index moves down
	require.NoError(t, a.Remove(true))
	assert.Equal(t, map[int]domain.InstructionID{1: cond.ID}, main.ConditionalIndex())
	assertIndexConsistent(t, ws)

	// moving the host carries the condition
	sub := ws.Program(domain.ProgramSub2)
	require.NoError(t, b.SetOwner(sub, -1))
	assert.Empty(t, main.ConditionalIndex())
	assert.Equal(t, map[int]domain.InstructionID{0: cond.ID}, sub.ConditionalIndex())
	assert.Equal(t, sub, cond.Owner())
	assertIndexConsistent(t, ws)
}

func TestInstruction_SingleCondition(t *testing.T) {
	ws := program.NewWorkspace()
	main := ws.Main()
	host := ws.New(domain.KindMoveForward)
	other := ws.New(domain.KindMoveBack)
	require.NoError(t, main.Add(host, -1))
	require.NoError(t, main.Add(other, -1))

	first := ws.NewCondition("if_coin")
	second := ws.NewCondition("if_free")

	require.NoError(t, host.AttachCondition(first, false))
	require.NoError(t, host.AttachCondition(second, false))

	assert.Equal(t, second, host.Condition())
	assert.True(t, first.Removed(), "replaced condition is removed from the scene")
	assert.Nil(t, first.AttachedTo())
	assertIndexConsistent(t, ws)

	t.Run("Preserving the previous condition", func(t *testing.T) {
		third := ws.NewCondition("if_blocked")
		require.NoError(t, host.AttachCondition(third, true))
		assert.False(t, second.Removed())
		assert.Nil(t, second.AttachedTo())
		assert.Nil(t, second.Owner())
		assertIndexConsistent(t, ws)
	})

	t.Run("A condition is never attached to two hosts", func(t *testing.T) {
		cond := host.Condition()
		require.NoError(t, other.AttachCondition(cond, false))
		assert.Nil(t, host.Condition())
		assert.Equal(t, other, cond.AttachedTo())
		assert.Equal(t, map[int]domain.InstructionID{1: cond.ID}, main.ConditionalIndex())
		assertIndexConsistent(t, ws)
	})

	t.Run("Re-attaching the same condition is a no-op", func(t *testing.T) {
		cond := other.Condition()
		require.NoError(t, other.AttachCondition(cond, false))
		assert.Equal(t, cond, other.Condition())
		assert.False(t, cond.Removed())
	})

	t.Run("Invalid attachments", func(t *testing.T) {
		placeholder := ws.NewPlaceholder()
		assert.ErrorIs(t, placeholder.AttachCondition(ws.NewCondition("if_coin"), false), domain.ErrInvalidEdit)
		assert.ErrorIs(t, host.AttachCondition(ws.New(domain.KindTurnLeft), false), domain.ErrInvalidEdit)
		cond := ws.NewCondition("if_coin")
		assert.ErrorIs(t, cond.AttachCondition(ws.NewCondition("if_free"), false), domain.ErrInvalidEdit)
		assert.ErrorIs(t, cond.SetOwner(main, -1), domain.ErrInvalidEdit)
	})
}

func TestInstruction_DetachCondition(t *testing.T) {
	ws := program.NewWorkspace()
	host := ws.New(domain.KindTurnRight)
	require.NoError(t, ws.Main().Add(host, -1))
	cond := ws.NewCondition("if_coin")
	require.NoError(t, host.AttachCondition(cond, false))

	detached, err := host.DetachCondition()
	require.NoError(t, err)
	assert.Equal(t, cond, detached)
	assert.Nil(t, host.Condition())
	assert.False(t, cond.Removed())
	assert.Empty(t, ws.Main().ConditionalIndex())

	detached, err = host.DetachCondition()
	require.NoError(t, err)
	assert.Nil(t, detached)
}

func TestInstruction_RemoveIsIdempotent(t *testing.T) {
	build := func() (*program.Workspace, *program.Instruction) {
		ws := program.NewWorkspace()
		main := ws.Main()
		for _, k := range []domain.Kind{domain.KindMoveForward, domain.KindTurnLeft, domain.KindMoveBack} {
			require.NoError(t, main.Add(ws.New(k), -1))
		}
		target := main.At(1)
		require.NoError(t, target.AttachCondition(ws.NewCondition("if_coin"), false))
		require.NoError(t, main.At(2).AttachCondition(ws.NewCondition("if_free"), false))
		return ws, target
	}

	once, a := build()
	require.NoError(t, a.Remove(true))

	twice, b := build()
	require.NoError(t, b.Remove(true))
	require.NoError(t, b.Remove(true))

	assert.Equal(t, program.StringifyAll(once), program.StringifyAll(twice))
	assert.Equal(t, once.Main().ConditionalIndex(), twice.Main().ConditionalIndex())
	assert.Equal(t, once.Len(), twice.Len())
	assertIndexConsistent(t, twice)
}

func TestInstruction_RemoveCascade(t *testing.T) {
	ws := program.NewWorkspace()
	host := ws.New(domain.KindMoveForward)
	require.NoError(t, ws.Main().Add(host, -1))
	cond := ws.NewCondition("if_coin")
	require.NoError(t, host.AttachCondition(cond, false))

	var released []domain.InstructionID
	ws.OnRelease(func(i *program.Instruction) { released = append(released, i.ID) })

	t.Run("Removing a condition clears the host back-reference", func(t *testing.T) {
		require.NoError(t, cond.Remove(true))
		assert.Nil(t, host.Condition())
		assert.Empty(t, ws.Main().ConditionalIndex())
		assert.Equal(t, []domain.InstructionID{cond.ID}, released)
	})

	t.Run("Without cascade the condition survives unplaced", func(t *testing.T) {
		keep := ws.NewCondition("if_free")
		require.NoError(t, host.AttachCondition(keep, false))
		require.NoError(t, host.Remove(false))
		assert.True(t, host.Removed())
		assert.False(t, keep.Removed())
		assert.Nil(t, keep.AttachedTo())
		assert.Nil(t, keep.Owner())
		assertIndexConsistent(t, ws)
	})
}

func TestWorkspace_FrozenRejectsEdits(t *testing.T) {
	ws := program.NewWorkspace()
	instr := ws.New(domain.KindMoveForward)
	require.NoError(t, ws.Main().Add(instr, -1))

	ws.Freeze()
	assert.ErrorIs(t, ws.Main().Add(ws.New(domain.KindTurnLeft), -1), domain.ErrFrozen)
	assert.ErrorIs(t, instr.Remove(true), domain.ErrFrozen)
	assert.ErrorIs(t, instr.AttachCondition(ws.NewCondition("if_coin"), false), domain.ErrFrozen)
	assert.Equal(t, 1, ws.Main().Len())

	ws.Unfreeze()
	require.NoError(t, instr.Remove(true))
	assert.Equal(t, 0, ws.Main().Len())

	t.Run("Strict mode panics", func(t *testing.T) {
		strict := program.NewWorkspace(program.WithStrict(true))
		strict.Freeze()
		assert.Panics(t, func() {
			_ = strict.Main().Add(strict.New(domain.KindTurnLeft), -1)
		})
	})
}

func TestStringify(t *testing.T) {
	ws := program.NewWorkspace()
	main := ws.Main()
	fwd := ws.New(domain.KindMoveForward)
	require.NoError(t, main.Add(fwd, -1))
	require.NoError(t, main.Add(ws.New(domain.KindCallSubprogram1), -1))
	require.NoError(t, fwd.AttachCondition(ws.NewCondition("if_coin"), false))
	require.NoError(t, main.Add(ws.NewPlaceholder(), 1))

	assert.Equal(t, "main: 0:move-forward[if_coin] 1:(intent) 2:call-subprogram-1", program.Stringify(main))
	assert.Equal(t, "subprogram-1:", program.Stringify(ws.Program(domain.ProgramSub1)))
}

func TestWorkspace_SnapshotRestore(t *testing.T) {
	ws := program.NewWorkspace()
	main := ws.Main()
	fwd := ws.New(domain.KindMoveForward)
	require.NoError(t, main.Add(fwd, -1))
	require.NoError(t, main.Add(ws.NewPlaceholder(), -1))
	require.NoError(t, ws.Program(domain.ProgramSub1).Add(ws.New(domain.KindTurnRight), -1))
	require.NoError(t, fwd.AttachCondition(ws.NewCondition("if_coin"), false))

	snap := ws.Snapshot()
	assert.Len(t, snap.Program(domain.ProgramMain), 1, "placeholders are not persisted")
	assert.Equal(t, "if_coin", snap.Program(domain.ProgramMain)[0].Condition)

	restored := program.NewWorkspace()
	require.NoError(t, restored.Restore(snap))
	assert.Equal(t, "main: 0:move-forward[if_coin]", program.Stringify(restored.Main()))
	assert.Equal(t, "subprogram-1: 0:turn-right", program.Stringify(restored.Program(domain.ProgramSub1)))
	assert.Nil(t, domain.Diff(snap, restored.Snapshot()))
	assertIndexConsistent(t, restored)
}

// TestProgram_IndexConsistencyRandomized applies random add/remove/insert/attach
// sequences and checks the conditional index after every step.
func TestProgram_IndexConsistencyRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	moveKinds := []domain.Kind{
		domain.KindMoveForward, domain.KindMoveBack, domain.KindTurnLeft,
		domain.KindTurnRight, domain.KindCallSubprogram1, domain.KindCallSubprogram2,
	}

	for round := 0; round < 20; round++ {
		ws := program.NewWorkspace()
		for step := 0; step < 200; step++ {
			p := ws.Programs()[rng.Intn(3)]
			switch rng.Intn(6) {
			case 0, 1:
				instr := ws.New(moveKinds[rng.Intn(len(moveKinds))])
				require.NoError(t, p.Add(instr, rng.Intn(p.Len()+2)-1))
			case 2:
				if p.Len() > 0 {
					require.NoError(t, p.At(rng.Intn(p.Len())).Remove(rng.Intn(2) == 0))
				}
			case 3:
				if p.Len() > 0 {
					require.NoError(t, p.SetConditionalAt(rng.Intn(p.Len()), ws.NewCondition("if_coin")))
				}
			case 4:
				if p.Len() > 0 {
					target := ws.Programs()[rng.Intn(3)]
					require.NoError(t, p.At(rng.Intn(p.Len())).SetOwner(target, rng.Intn(target.Len()+1)))
				}
			case 5:
				if p.Len() > 0 {
					if cond := p.At(rng.Intn(p.Len())).Condition(); cond != nil {
						require.NoError(t, cond.Remove(true))
					}
				}
			}
			assertIndexConsistent(t, ws)
		}
	}
}

func TestWorkspace_FrozenAllowsUnplacedRemoval(t *testing.T) {
	ws := program.NewWorkspace()
	spare := ws.New(domain.KindTurnRight)
	ws.Freeze()

	require.NoError(t, spare.Remove(true))
	assert.True(t, spare.Removed())
	_, ok := ws.Instruction(spare.ID)
	assert.False(t, ok)
}
