package editor_test

import (
	"testing"
	"time"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/editor"
	"github.com/aretw0/mazecode/pkg/ports"
	"github.com/aretw0/mazecode/pkg/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
func newClock() *fakeClock                   { return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)} }

// canvas is a recording presentation with settable sprite positions.
type canvas struct {
	positions  map[domain.InstructionID]domain.Point
	scales     map[domain.InstructionID]float64
	highlights map[string]bool
	feedback   []domain.Feedback
	animations []string
}

func newCanvas() *canvas {
	return &canvas{
		positions:  make(map[domain.InstructionID]domain.Point),
		scales:     make(map[domain.InstructionID]float64),
		highlights: make(map[string]bool),
	}
}

func (c *canvas) PlayFeedback(kind domain.Feedback)              { c.feedback = append(c.feedback, kind) }
func (c *canvas) Highlight(target string, on bool)               { c.highlights[target] = on }
func (c *canvas) Place(id domain.InstructionID, at domain.Point) { c.positions[id] = at }
func (c *canvas) Scale(id domain.InstructionID, f float64)       { c.scales[id] = f }
func (c *canvas) Release(id domain.InstructionID)                { delete(c.positions, id) }
func (c *canvas) AgentReached(domain.Position) bool              { return true }
func (c *canvas) Animate(subject, name string, done func()) {
	c.animations = append(c.animations, subject+":"+name)
	if done != nil {
		done()
	}
}
func (c *canvas) ScreenPosition(id domain.InstructionID) (domain.Point, bool) {
	p, ok := c.positions[id]
	return p, ok
}

type fixture struct {
	ws     *program.Workspace
	ed     *editor.Editor
	clock  *fakeClock
	canvas *canvas
	edits  []editor.Result
}

func newFixture(opts ...editor.Option) *fixture {
	f := &fixture{ws: program.NewWorkspace(), clock: newClock(), canvas: newCanvas()}
	opts = append([]editor.Option{
		editor.WithClock(f.clock),
		editor.WithPresentation(f.canvas),
		editor.WithEditHook(func(r editor.Result) { f.edits = append(f.edits, r) }),
	}, opts...)
	f.ed = editor.New(f.ws, opts...)
	return f
}

// place puts a fresh instruction at the end of a program and draws it on the main row.
func (f *fixture) place(t *testing.T, name domain.ProgramName, kind domain.Kind) *program.Instruction {
	t.Helper()
	p := f.ws.Program(name)
	instr := f.ws.New(kind)
	require.NoError(t, p.Add(instr, -1))
	f.canvas.positions[instr.ID] = domain.Point{X: 150 + float64(instr.Index())*50, Y: 100}
	return instr
}

// gesture performs press, drag start, drop at (x, y) and drag end after hold.
func (f *fixture) gesture(id domain.InstructionID, hold time.Duration, x, y float64) editor.Result {
	_ = f.ed.Press(id)
	_ = f.ed.DragStart(id)
	f.ed.DragMove(id, x, y)
	f.ed.DropAt(id, x, y)
	f.clock.Advance(hold)
	return f.ed.DragEnd(id)
}

func ids(p *program.Program) []domain.InstructionID {
	var out []domain.InstructionID
	for _, instr := range p.Instructions() {
		out = append(out, instr.ID)
	}
	return out
}

// Far from every zone.
const nowhereX, nowhereY = 5.0, 590.0

func TestEditor_TapThreshold(t *testing.T) {
	t.Run("399ms is a tap", func(t *testing.T) {
		f := newFixture()
		token := f.ed.Stock(domain.KindMoveForward, "")

		res := f.gesture(token.ID, 399*time.Millisecond, nowhereX, nowhereY)

		assert.True(t, res.Tap)
		assert.Equal(t, editor.OutcomeAppended, res.Outcome)
		assert.Equal(t, domain.ProgramMain, res.Program)
		assert.Equal(t, []domain.InstructionID{token.ID}, ids(f.ws.Main()))
	})

	t.Run("400ms is a drag", func(t *testing.T) {
		f := newFixture()
		token := f.ed.Stock(domain.KindMoveForward, "")
		origin := f.canvas.positions[token.ID]

		res := f.gesture(token.ID, 400*time.Millisecond, nowhereX, nowhereY)

		assert.False(t, res.Tap)
		assert.Equal(t, editor.OutcomeCancelled, res.Outcome)
		assert.Equal(t, 0, f.ws.Main().Len())
		assert.Equal(t, origin, f.canvas.positions[token.ID], "cancel restores the pre-drag position")
	})
}

func TestEditor_TapPlacedRemoves(t *testing.T) {
	f := newFixture()
	host := f.place(t, domain.ProgramMain, domain.KindMoveForward)
	cond := f.ws.NewCondition("if_coin")
	require.NoError(t, host.AttachCondition(cond, false))

	res := f.gesture(host.ID, 100*time.Millisecond, 150, 100)

	assert.Equal(t, editor.OutcomeRemoved, res.Outcome)
	assert.Equal(t, 0, f.ws.Main().Len())
	assert.True(t, cond.Removed(), "removal cascades to the condition")
	assert.Contains(t, f.canvas.feedback, domain.FeedbackRemove)
	require.NoError(t, f.ws.Check())
}

func TestEditor_TapPlacedOnOtherProgramCancels(t *testing.T) {
	f := newFixture()
	instr := f.place(t, domain.ProgramMain, domain.KindTurnLeft)

	_ = f.ed.Press(instr.ID)
	_ = f.ed.DragStart(instr.ID)
	f.ed.Drop(instr.ID, ports.ProgramTarget(domain.ProgramSub1))
	res := f.ed.DragEnd(instr.ID)

	assert.Equal(t, editor.OutcomeCancelled, res.Outcome)
	assert.Equal(t, []domain.InstructionID{instr.ID}, ids(f.ws.Main()))
}

func TestEditor_TapPlacedOnOtherProgramTileCancels(t *testing.T) {
	f := newFixture()
	instr := f.place(t, domain.ProgramMain, domain.KindTurnLeft)
	other := f.place(t, domain.ProgramSub1, domain.KindTurnRight)

	_ = f.ed.Press(instr.ID)
	_ = f.ed.DragStart(instr.ID)
	f.ed.Drop(instr.ID, ports.InstructionTarget(other.ID))
	res := f.ed.DragEnd(instr.ID)

	assert.Equal(t, editor.OutcomeCancelled, res.Outcome)
	assert.False(t, instr.Removed())
	assert.Equal(t, []domain.InstructionID{instr.ID}, ids(f.ws.Main()))
	assert.Equal(t, []domain.InstructionID{other.ID}, ids(f.ws.Program(domain.ProgramSub1)))
}

func TestEditor_TapPlacedOnOwnTileRemoves(t *testing.T) {
	f := newFixture()
	instr := f.place(t, domain.ProgramMain, domain.KindTurnLeft)
	sibling := f.place(t, domain.ProgramMain, domain.KindMoveForward)

	_ = f.ed.Press(instr.ID)
	_ = f.ed.DragStart(instr.ID)
	f.ed.Drop(instr.ID, ports.InstructionTarget(sibling.ID))
	res := f.ed.DragEnd(instr.ID)

	assert.Equal(t, editor.OutcomeRemoved, res.Outcome)
	assert.Equal(t, []domain.InstructionID{sibling.ID}, ids(f.ws.Main()))
}

func TestEditor_DragToTrash(t *testing.T) {
	f := newFixture()
	a := f.place(t, domain.ProgramMain, domain.KindMoveForward)
	b := f.place(t, domain.ProgramMain, domain.KindTurnRight)

	res := f.gesture(a.ID, time.Second, 660, 420)

	assert.Equal(t, editor.OutcomeRemoved, res.Outcome)
	assert.Equal(t, []domain.InstructionID{b.ID}, ids(f.ws.Main()))
	assert.Contains(t, f.canvas.animations, "trash:open")
	assert.Contains(t, f.canvas.animations, "trash:close")
}

func TestEditor_DragToProgram(t *testing.T) {
	f := newFixture()
	a := f.place(t, domain.ProgramMain, domain.KindMoveForward)

	res := f.gesture(a.ID, time.Second, 300, 250)

	assert.Equal(t, editor.OutcomeMoved, res.Outcome)
	assert.Equal(t, domain.ProgramSub1, res.Program)
	assert.Equal(t, 0, f.ws.Main().Len())
	assert.Equal(t, []domain.InstructionID{a.ID}, ids(f.ws.Program(domain.ProgramSub1)))
	assert.Equal(t, 1.0, f.canvas.scales[a.ID])
	assert.False(t, f.canvas.highlights[ports.ProgramTarget(domain.ProgramMain)])
	assert.False(t, a.Muted)
}

func TestEditor_ConditionDrops(t *testing.T) {
	t.Run("Tile attaches", func(t *testing.T) {
		f := newFixture()
		host := f.place(t, domain.ProgramMain, domain.KindMoveForward)
		cond := f.ed.Stock(domain.KindCondition, "if_coin")

		res := f.gesture(cond.ID, time.Second, 150, 100)

		assert.Equal(t, editor.OutcomeAttached, res.Outcome)
		assert.Equal(t, cond, host.Condition())
		assert.Equal(t, cond.ID, f.ws.Main().ConditionalIndex()[0])
		require.NoError(t, f.ws.Check())
	})

	t.Run("Program slot is invalid", func(t *testing.T) {
		f := newFixture()
		cond := f.ed.Stock(domain.KindCondition, "if_coin")

		res := f.gesture(cond.ID, time.Second, 300, 250)

		assert.Equal(t, editor.OutcomeCancelled, res.Outcome)
		assert.ErrorIs(t, res.Err, domain.ErrInvalidEdit)
		assert.False(t, cond.Placed())
	})

	t.Run("Tap unplaced is invalid", func(t *testing.T) {
		f := newFixture()
		cond := f.ed.Stock(domain.KindCondition, "if_free")

		res := f.gesture(cond.ID, 10*time.Millisecond, nowhereX, nowhereY)

		assert.Equal(t, editor.OutcomeCancelled, res.Outcome)
		assert.Equal(t, 0, f.ws.Main().Len())
	})
}

func count(cues []domain.Feedback, kind domain.Feedback) int {
	n := 0
	for _, c := range cues {
		if c == kind {
			n++
		}
	}
	return n
}

func TestEditor_MutedUntilSettled(t *testing.T) {
	t.Run("Attach during a drag", func(t *testing.T) {
		f := newFixture()
		host := f.place(t, domain.ProgramMain, domain.KindMoveForward)
		cond := f.ed.Stock(domain.KindCondition, "if_coin")

		require.NoError(t, f.ed.Press(cond.ID))
		require.NoError(t, f.ed.DragStart(cond.ID))
		assert.True(t, cond.Muted)

		// A structural change on the dragged instruction plays nothing by itself.
		require.NoError(t, host.AttachCondition(cond, false))
		assert.Zero(t, count(f.canvas.feedback, domain.FeedbackDrop))

		f.ed.DropAt(cond.ID, 150, 100)
		f.clock.Advance(time.Second)
		res := f.ed.DragEnd(cond.ID)

		assert.Equal(t, editor.OutcomeAttached, res.Outcome)
		assert.Equal(t, 1, count(f.canvas.feedback, domain.FeedbackDrop))
		assert.False(t, cond.Muted)
	})

	t.Run("Trash plays one remove cue", func(t *testing.T) {
		f := newFixture()
		host := f.place(t, domain.ProgramMain, domain.KindMoveForward)
		require.NoError(t, host.AttachCondition(f.ws.NewCondition("if_coin"), false))
		f.canvas.feedback = nil

		res := f.gesture(host.ID, time.Second, 660, 420)

		assert.Equal(t, editor.OutcomeRemoved, res.Outcome)
		assert.Equal(t, 1, count(f.canvas.feedback, domain.FeedbackRemove))
	})

	t.Run("Edits outside a gesture play their own cue", func(t *testing.T) {
		f := newFixture()
		host := f.place(t, domain.ProgramMain, domain.KindMoveForward)
		cond := f.ws.NewCondition("if_coin")

		require.NoError(t, host.AttachCondition(cond, false))
		assert.Equal(t, []domain.Feedback{domain.FeedbackDrop}, f.canvas.feedback)

		require.NoError(t, host.Remove(true))
		assert.Equal(t, []domain.Feedback{domain.FeedbackDrop, domain.FeedbackRemove}, f.canvas.feedback)
	})

	t.Run("Restore is silent", func(t *testing.T) {
		f := newFixture()
		f.place(t, domain.ProgramMain, domain.KindTurnLeft)
		snap := domain.NewSnapshot()
		snap.Programs[domain.ProgramMain] = []domain.InstructionSnapshot{
			{ID: 1, Kind: domain.KindMoveForward, ConditionID: 2, Condition: "if_coin"},
		}

		require.NoError(t, f.ws.Restore(snap))
		assert.Empty(t, f.canvas.feedback)
	})
}

func TestEditor_IntentConsolidate(t *testing.T) {
	f := newFixture()
	a := f.place(t, domain.ProgramMain, domain.KindMoveForward)
	b := f.place(t, domain.ProgramMain, domain.KindTurnLeft)
	c := f.place(t, domain.ProgramMain, domain.KindTurnRight)

	require.NoError(t, f.ed.Press(a.ID))
	require.NoError(t, f.ed.DragStart(a.ID))
	f.ed.DragMove(a.ID, 250, 100)

	in := f.ed.Intent()
	require.NotNil(t, in)
	assert.Equal(t, c.ID, in.Anchor())
	assert.Equal(t, 2, in.Index())
	assert.Equal(t, 4, f.ws.Main().Len())
	assert.Equal(t, "main: 0:move-forward 1:turn-left 2:(intent) 3:turn-right", program.Stringify(f.ws.Main()))

	f.ed.DropAt(a.ID, 250, 100)
	f.clock.Advance(time.Second)
	res := f.ed.DragEnd(a.ID)

	assert.Equal(t, editor.OutcomeInserted, res.Outcome)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, []domain.InstructionID{b.ID, a.ID, c.ID}, ids(f.ws.Main()))
	assert.Nil(t, f.ed.Intent())
	require.NoError(t, f.ws.Check())
}

func TestEditor_IntentFollowsPointer(t *testing.T) {
	f := newFixture()
	a := f.place(t, domain.ProgramMain, domain.KindMoveForward)
	b := f.place(t, domain.ProgramMain, domain.KindTurnLeft)
	c := f.place(t, domain.ProgramMain, domain.KindTurnRight)

	require.NoError(t, f.ed.DragStart(c.ID))
	f.ed.DragMove(c.ID, 200, 100)
	require.NotNil(t, f.ed.Intent())
	assert.Equal(t, b.ID, f.ed.Intent().Anchor())

	f.ed.DragMove(c.ID, 150, 100)
	assert.Equal(t, a.ID, f.ed.Intent().Anchor())
	assert.Equal(t, 0, f.ed.Intent().Index())
	assert.Equal(t, 4, f.ws.Main().Len())

	f.ed.DragMove(c.ID, nowhereX, nowhereY)
	assert.Nil(t, f.ed.Intent(), "leaving the tiles discards the preview")
	assert.Equal(t, 3, f.ws.Main().Len())

	f.ed.DragMove(c.ID, 150, 100)
	f.ed.DropAt(c.ID, 660, 420)
	f.clock.Advance(time.Second)
	res := f.ed.DragEnd(c.ID)

	assert.Equal(t, editor.OutcomeRemoved, res.Outcome)
	assert.Equal(t, []domain.InstructionID{a.ID, b.ID}, ids(f.ws.Main()), "trash discards the preview")
	require.NoError(t, f.ws.Check())
}

func TestEditor_TileDropWithoutIntent(t *testing.T) {
	f := newFixture()
	a := f.place(t, domain.ProgramMain, domain.KindMoveForward)
	b := f.place(t, domain.ProgramMain, domain.KindTurnLeft)
	token := f.ed.Stock(domain.KindCallSubprogram1, "")

	res := f.gesture(token.ID, time.Second, 200, 100)

	assert.Equal(t, editor.OutcomeInserted, res.Outcome)
	assert.Equal(t, []domain.InstructionID{a.ID, token.ID, b.ID}, ids(f.ws.Main()))
}

func TestEditor_PaletteRespawn(t *testing.T) {
	f := newFixture()
	token := f.ed.Stock(domain.KindTurnLeft, "")
	at := f.canvas.positions[token.ID]

	require.NoError(t, f.ed.DragStart(token.ID))
	spare, ok := f.ed.PaletteToken(domain.KindTurnLeft, "")
	require.True(t, ok)
	assert.NotEqual(t, token.ID, spare.ID)
	assert.Equal(t, at, f.canvas.positions[spare.ID])

	f.ed.DropAt(token.ID, 300, 100)
	f.clock.Advance(time.Second)
	res := f.ed.DragEnd(token.ID)
	assert.Equal(t, editor.OutcomeAppended, res.Outcome)

	current, _ := f.ed.PaletteToken(domain.KindTurnLeft, "")
	assert.Equal(t, spare.ID, current.ID)
	assert.False(t, current.Placed())

	t.Run("Cancelled drag reclaims the slot", func(t *testing.T) {
		res := f.gesture(spare.ID, time.Second, nowhereX, nowhereY)
		assert.Equal(t, editor.OutcomeCancelled, res.Outcome)

		current, _ := f.ed.PaletteToken(domain.KindTurnLeft, "")
		assert.Equal(t, spare.ID, current.ID)
		assert.Equal(t, 2, f.ws.Len(), "the spare spawned by the cancelled drag is discarded")
	})
}

func TestEditor_FrozenWorkspace(t *testing.T) {
	f := newFixture()
	a := f.place(t, domain.ProgramMain, domain.KindMoveForward)
	token := f.ed.Stock(domain.KindTurnLeft, "")
	f.ws.Freeze()

	err := f.ed.DragStart(a.ID)
	assert.ErrorIs(t, err, domain.ErrFrozen)
	assert.Equal(t, editor.GestureIdle, f.ed.State())

	res := f.gesture(token.ID, 10*time.Millisecond, nowhereX, nowhereY)
	assert.Equal(t, editor.OutcomeCancelled, res.Outcome)
	assert.ErrorIs(t, res.Err, domain.ErrFrozen)
	assert.Equal(t, []domain.InstructionID{a.ID}, ids(f.ws.Main()))

	current, _ := f.ed.PaletteToken(domain.KindTurnLeft, "")
	assert.Equal(t, token.ID, current.ID)
}

func TestEditor_SingleDrag(t *testing.T) {
	f := newFixture()
	a := f.place(t, domain.ProgramMain, domain.KindMoveForward)
	b := f.place(t, domain.ProgramMain, domain.KindTurnLeft)

	require.NoError(t, f.ed.DragStart(a.ID))
	assert.ErrorIs(t, f.ed.DragStart(b.ID), domain.ErrDragActive)
	assert.ErrorIs(t, f.ed.Press(b.ID), domain.ErrDragActive)
	assert.Equal(t, a.ID, f.ed.Dragging())

	assert.True(t, f.ed.Cancel())
	assert.Equal(t, editor.GestureIdle, f.ed.State())
	require.NoError(t, f.ed.Press(b.ID))

	t.Run("Shared slot", func(t *testing.T) {
		slot := &editor.DragSlot{}
		one := editor.New(f.ws, editor.WithDragSlot(slot), editor.WithClock(f.clock))
		two := editor.New(f.ws, editor.WithDragSlot(slot), editor.WithClock(f.clock))

		require.NoError(t, one.Press(a.ID))
		assert.ErrorIs(t, two.Press(b.ID), domain.ErrDragActive)
	})

	t.Run("Strict mode panics", func(t *testing.T) {
		strict := editor.New(f.ws, editor.WithStrict(true), editor.WithClock(f.clock))
		require.NoError(t, strict.Press(a.ID))
		assert.Panics(t, func() { _ = strict.Press(b.ID) })
	})
}

func TestEditor_Hover(t *testing.T) {
	f := newFixture()
	a := f.place(t, domain.ProgramMain, domain.KindMoveForward)
	before := program.Stringify(f.ws.Main())

	f.ed.PointerOver(a.ID)
	assert.Equal(t, domain.HoverScale, f.canvas.scales[a.ID])
	assert.Equal(t, []domain.Feedback{domain.FeedbackHover}, f.canvas.feedback)
	assert.Equal(t, a.ID, f.ed.Hovered())

	f.ed.PointerOut(a.ID)
	assert.Equal(t, 1.0, f.canvas.scales[a.ID])
	assert.Equal(t, before, program.Stringify(f.ws.Main()))
}

func TestEditor_EditHook(t *testing.T) {
	f := newFixture()
	token := f.ed.Stock(domain.KindMoveBack, "")
	f.gesture(token.ID, 0, nowhereX, nowhereY)

	require.Len(t, f.edits, 1)
	assert.Equal(t, editor.OutcomeAppended, f.edits[0].Outcome)
	assert.Equal(t, token.ID, f.edits[0].Instruction)
}
