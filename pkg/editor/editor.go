package editor

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
	"github.com/aretw0/mazecode/pkg/program"
)

// GestureState is the state of the gesture in flight.
type GestureState int

const (
	GestureIdle GestureState = iota
	GesturePressed
	GestureDragging
	GestureSettled
)

func (s GestureState) String() string {
	switch s {
	case GestureIdle:
		return "idle"
	case GesturePressed:
		return "pressed"
	case GestureDragging:
		return "dragging"
	case GestureSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Outcome is how a gesture ended.
type Outcome string

const (
	OutcomeAppended  Outcome = "appended"
	OutcomeMoved     Outcome = "moved"
	OutcomeInserted  Outcome = "inserted"
	OutcomeAttached  Outcome = "attached"
	OutcomeRemoved   Outcome = "removed"
	OutcomeCancelled Outcome = "cancelled"
)

// Result describes the settled gesture.
type Result struct {
	Outcome     Outcome              `json:"outcome"`
	Instruction domain.InstructionID `json:"instruction"`
	Program     domain.ProgramName   `json:"program,omitempty"`
	Index       int                  `json:"index"`
	Tap         bool                 `json:"tap"`
	// Err explains a cancel caused by a rejected edit. It is never shown to the player.
	Err error `json:"-"`
}

// DragSlot holds the single instruction allowed to be mid-gesture.
// A session shares one slot between every editor it drives.
type DragSlot struct {
	active domain.InstructionID
}

// Active returns the instruction holding the slot, 0 when free.
func (s *DragSlot) Active() domain.InstructionID { return s.active }

func (s *DragSlot) acquire(id domain.InstructionID) bool {
	if s.active != 0 && s.active != id {
		return false
	}
	s.active = id
	return true
}

func (s *DragSlot) release(id domain.InstructionID) {
	if s.active == id {
		s.active = 0
	}
}

type gesture struct {
	instr     *program.Instruction
	state     GestureState
	pressedAt time.Time
	origin    domain.Point
	hasOrigin bool
	pointer   domain.Point
	target    *Zone
	intent    *Intent

	// spare is the palette replacement spawned when a palette token is dragged.
	spare *program.Instruction
}

type token struct {
	kind      domain.Kind
	predicate string
}

type paletteSlot struct {
	id domain.InstructionID
	at domain.Point
}

// Editor is the drag-and-drop editing state machine.
// It is not safe for concurrent use.
type Editor struct {
	ws           *program.Workspace
	presentation ports.Presentation
	clock        ports.Clock
	slot         *DragSlot
	layout       Layout
	logger       *slog.Logger
	strict       bool
	onEdit       []func(Result)

	palette map[token]*paletteSlot
	gesture *gesture
	hovered domain.InstructionID
}

// Option configures the Editor.
type Option func(*Editor)

// WithClock sets the time source used to tell taps from drags.
func WithClock(c ports.Clock) Option {
	return func(e *Editor) {
		e.clock = c
	}
}

// WithPresentation sets the collaborator receiving cues, highlights and placements.
func WithPresentation(p ports.Presentation) Option {
	return func(e *Editor) {
		e.presentation = p
	}
}

// WithDragSlot shares the active-drag slot of a session.
func WithDragSlot(slot *DragSlot) Option {
	return func(e *Editor) {
		if slot != nil {
			e.slot = slot
		}
	}
}

// WithLayout sets the zones, tile geometry and palette positions.
func WithLayout(l Layout) Option {
	return func(e *Editor) {
		e.layout = l
	}
}

// WithLogger configures a logger for the Editor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStrict turns contract violations (a second concurrent drag) into panics.
func WithStrict(strict bool) Option {
	return func(e *Editor) {
		e.strict = strict
	}
}

// WithEditHook registers a callback invoked with every settled gesture.
func WithEditHook(fn func(Result)) Option {
	return func(e *Editor) {
		e.onEdit = append(e.onEdit, fn)
	}
}

// New creates an editor over ws.
func New(ws *program.Workspace, opts ...Option) *Editor {
	e := &Editor{
		ws:      ws,
		clock:   ports.SystemClock{},
		slot:    &DragSlot{},
		layout:  DefaultLayout(),
		logger:  logging.NewNop(),
		palette: make(map[token]*paletteSlot),
	}
	for _, opt := range opts {
		opt(e)
	}
	ws.OnCue(func(_ *program.Instruction, kind domain.Feedback) { e.feedback(kind) })
	return e
}

// Workspace returns the edited workspace.
func (e *Editor) Workspace() *program.Workspace { return e.ws }

// Layout returns the canvas geometry.
func (e *Editor) Layout() Layout { return e.layout }

// State reports the state of the gesture in flight.
func (e *Editor) State() GestureState {
	if e.gesture == nil {
		return GestureIdle
	}
	return e.gesture.state
}

// Dragging returns the instruction of the gesture in flight, 0 when idle.
func (e *Editor) Dragging() domain.InstructionID {
	if e.gesture == nil {
		return 0
	}
	return e.gesture.instr.ID
}

// Intent returns the insertion preview of the gesture in flight, if any.
func (e *Editor) Intent() *Intent {
	if e.gesture == nil {
		return nil
	}
	return e.gesture.intent
}

// Stock creates the palette token for a kind. Condition tokens carry a predicate.
// Stocking a kind twice returns the existing token.
func (e *Editor) Stock(kind domain.Kind, predicate string) *program.Instruction {
	key := token{kind: kind, predicate: predicate}
	if slot, ok := e.palette[key]; ok {
		if instr, live := e.ws.Instruction(slot.id); live {
			return instr
		}
	}

	at := e.layout.Palette[kind]
	if kind.IsCondition() {
		n := 0
		for k := range e.palette {
			if k.kind.IsCondition() && k.predicate != predicate {
				n++
			}
		}
		at.X += float64(n) * e.layout.TileWidth
	}

	instr := e.spawn(key)
	e.palette[key] = &paletteSlot{id: instr.ID, at: at}
	e.place(instr.ID, at)
	return instr
}

// PaletteToken returns the current palette token for a kind.
func (e *Editor) PaletteToken(kind domain.Kind, predicate string) (*program.Instruction, bool) {
	slot, ok := e.palette[token{kind: kind, predicate: predicate}]
	if !ok {
		return nil, false
	}
	return e.ws.Instruction(slot.id)
}

func (e *Editor) spawn(key token) *program.Instruction {
	if key.kind.IsCondition() {
		return e.ws.NewCondition(key.predicate)
	}
	return e.ws.New(key.kind)
}

func keyOf(instr *program.Instruction) token {
	return token{kind: instr.Kind, predicate: instr.Predicate}
}

// violation handles a gesture-lifecycle contract violation.
func (e *Editor) violation(err error, args ...any) error {
	if e.strict {
		panic(fmt.Sprintf("mazecode: %v", err))
	}
	e.logger.Debug("Gesture ignored", append([]any{"error", err}, args...)...)
	return err
}

func (e *Editor) lookup(id domain.InstructionID) (*program.Instruction, error) {
	instr, ok := e.ws.Instruction(id)
	if !ok || instr.Placeholder {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownInstruction, id)
	}
	return instr, nil
}

// current returns the gesture for id, or an error when another instruction owns the slot.
func (e *Editor) current(id domain.InstructionID) (*gesture, error) {
	if e.gesture == nil {
		return nil, nil
	}
	if e.gesture.instr.ID != id {
		return nil, e.violation(domain.ErrDragActive, "id", id, "active", e.gesture.instr.ID)
	}
	return e.gesture, nil
}

// Press starts a gesture on an instruction and records the press time.
func (e *Editor) Press(id domain.InstructionID) error {
	instr, err := e.lookup(id)
	if err != nil {
		return err
	}
	g, err := e.current(id)
	if err != nil {
		return err
	}
	if g != nil {
		return nil
	}
	if !e.slot.acquire(id) {
		return e.violation(domain.ErrDragActive, "id", id, "active", e.slot.Active())
	}
	e.gesture = &gesture{instr: instr, state: GesturePressed, pressedAt: e.clock.Now()}
	instr.Muted = true
	return nil
}

// DragStart turns the pressed gesture into a drag.
// Placed instructions cannot be dragged while the workspace is frozen.
func (e *Editor) DragStart(id domain.InstructionID) error {
	if err := e.Press(id); err != nil {
		return err
	}
	g := e.gesture
	if g.state == GestureDragging {
		return nil
	}
	instr := g.instr

	if e.ws.Frozen() && instr.Placed() {
		e.abort(g)
		e.logger.Debug("Drag rejected while executing", "id", id)
		return fmt.Errorf("drag %d: %w", id, domain.ErrFrozen)
	}

	g.state = GestureDragging
	g.target = nil
	if e.presentation != nil {
		g.origin, g.hasOrigin = e.presentation.ScreenPosition(id)
	}

	key := keyOf(instr)
	if slot, ok := e.palette[key]; ok && slot.id == instr.ID {
		g.spare = e.spawn(key)
		slot.id = g.spare.ID
		e.place(g.spare.ID, slot.at)
	}

	e.highlightZones(true)
	e.animate(ports.TargetTrash, "open")
	e.scale(id, domain.HoverScale)
	e.feedback(domain.FeedbackDrag)
	e.logger.Debug("Drag started", "id", id, "kind", instr.Kind, "placed", instr.Placed())
	return nil
}

// DragMove tracks the pointer. Dragging a placed instruction over the tile of
// another placed instruction shows an insertion preview there.
func (e *Editor) DragMove(id domain.InstructionID, x, y float64) {
	g, err := e.current(id)
	if err != nil || g == nil || g.state != GestureDragging {
		return
	}
	g.pointer = domain.Point{X: x, Y: y}

	instr := g.instr
	if e.ws.Frozen() || !instr.Placed() || instr.Kind.IsCondition() {
		return
	}

	zone, ok := topmost(e.tiles(instr), g.pointer)
	if !ok {
		e.discardIntent(g)
		return
	}
	anchor, live := e.ws.Instruction(zone.Anchor)
	if !live {
		e.discardIntent(g)
		return
	}

	if g.intent == nil {
		in, err := NewIntent(e.ws, anchor)
		if err != nil {
			e.logger.Debug("Insertion preview rejected", "anchor", zone.Anchor, "error", err)
			return
		}
		g.intent = in
		return
	}
	if err := g.intent.MoveTo(anchor); err != nil {
		e.logger.Debug("Insertion preview not moved", "anchor", zone.Anchor, "error", err)
	}
}

// Drop records the zone the instruction was released on, by name.
// Unknown names clear the association.
func (e *Editor) Drop(id domain.InstructionID, target string) {
	g, err := e.current(id)
	if err != nil || g == nil {
		return
	}
	g.target = nil
	for _, z := range e.zones(g.instr) {
		if z.Name == target {
			zone := z
			g.target = &zone
			return
		}
	}
}

// DropAt resolves the zone under the pointer by containment; the topmost zone wins.
func (e *Editor) DropAt(id domain.InstructionID, x, y float64) {
	g, err := e.current(id)
	if err != nil || g == nil {
		return
	}
	g.pointer = domain.Point{X: x, Y: y}
	g.target = nil
	if zone, ok := topmost(e.zones(g.instr), g.pointer); ok {
		g.target = &zone
	}
}

// DragEnd classifies and settles the gesture.
func (e *Editor) DragEnd(id domain.InstructionID) Result {
	g, err := e.current(id)
	if err != nil {
		return Result{Outcome: OutcomeCancelled, Instruction: id, Index: -1, Err: err}
	}
	if g == nil {
		return Result{Outcome: OutcomeCancelled, Instruction: id, Index: -1}
	}

	elapsed := e.clock.Now().Sub(g.pressedAt)
	res := e.classify(g, elapsed < domain.TapThreshold)
	e.settle(g, res)
	return res
}

// Cancel aborts the gesture in flight, restoring the pre-drag placement.
// It reports whether a gesture was cancelled.
func (e *Editor) Cancel() bool {
	g := e.gesture
	if g == nil {
		return false
	}
	res := e.cancel(g, nil)
	e.settle(g, res)
	return true
}

// PointerOver applies the hover cue while no gesture is in flight.
func (e *Editor) PointerOver(id domain.InstructionID) {
	if e.gesture != nil || e.hovered == id {
		return
	}
	if _, err := e.lookup(id); err != nil {
		return
	}
	e.hovered = id
	e.scale(id, domain.HoverScale)
	e.feedback(domain.FeedbackHover)
}

// PointerOut removes the hover cue.
func (e *Editor) PointerOut(id domain.InstructionID) {
	if e.hovered != id {
		return
	}
	e.hovered = 0
	if e.gesture == nil || e.gesture.instr.ID != id {
		e.scale(id, 1)
	}
}

// Hovered returns the instruction under the pointer, 0 when none.
func (e *Editor) Hovered() domain.InstructionID { return e.hovered }

func (e *Editor) classify(g *gesture, tap bool) Result {
	instr := g.instr
	placed := instr.Placed()
	res := Result{Instruction: instr.ID, Index: -1, Tap: tap}

	if e.ws.Frozen() {
		return e.cancel(g, fmt.Errorf("settle %d: %w", instr.ID, domain.ErrFrozen))
	}

	switch {
	case tap && !placed:
		if instr.Kind.IsCondition() {
			return e.cancel(g, fmt.Errorf("%w: conditions need a host", domain.ErrInvalidEdit))
		}
		e.discardIntent(g)
		if err := e.ws.Main().Add(instr, -1); err != nil {
			return e.cancel(g, err)
		}
		res.Outcome = OutcomeAppended

	case tap:
		if g.target != nil && g.target.Program != "" && g.target.Program != e.ownerName(instr) {
			return e.cancel(g, nil)
		}
		e.discardIntent(g)
		if err := instr.Remove(true); err != nil {
			return e.cancel(g, err)
		}
		res.Outcome = OutcomeRemoved
		return res

	case g.target == nil:
		return e.cancel(g, nil)

	case g.target.Kind == ZoneTrash:
		e.discardIntent(g)
		if err := instr.Remove(true); err != nil {
			return e.cancel(g, err)
		}
		res.Outcome = OutcomeRemoved
		return res

	case g.target.Kind == ZoneProgram:
		if instr.Kind.IsCondition() {
			return e.cancel(g, fmt.Errorf("%w: conditions need a host", domain.ErrInvalidEdit))
		}
		if g.intent != nil && g.intent.Program() != nil && g.intent.Program().Name == g.target.Program {
			return e.consolidate(g, res)
		}
		e.discardIntent(g)
		if err := instr.SetOwner(e.ws.Program(g.target.Program), -1); err != nil {
			return e.cancel(g, err)
		}
		res.Outcome = OutcomeAppended
		if placed {
			res.Outcome = OutcomeMoved
		}

	case g.target.Kind == ZoneTile:
		anchor, ok := e.ws.Instruction(g.target.Anchor)
		if !ok || !anchor.Placed() {
			return e.cancel(g, fmt.Errorf("%w: tile anchor %d", domain.ErrUnknownInstruction, g.target.Anchor))
		}
		if instr.Kind.IsCondition() {
			e.discardIntent(g)
			if err := anchor.AttachCondition(instr, false); err != nil {
				return e.cancel(g, err)
			}
			res.Outcome = OutcomeAttached
			res.Program = anchor.Owner().Name
			res.Index = anchor.Index()
			return res
		}
		if g.intent != nil {
			return e.consolidate(g, res)
		}
		p := anchor.Owner()
		idx := anchor.Index()
		if instr.Owner() == p && instr.Index() < idx {
			idx--
		}
		if err := instr.SetOwner(p, idx); err != nil {
			return e.cancel(g, err)
		}
		res.Outcome = OutcomeInserted

	default:
		return e.cancel(g, fmt.Errorf("%w: unknown zone %s", domain.ErrInvalidEdit, g.target.Kind))
	}

	res.Program = e.ownerName(instr)
	res.Index = instr.Index()
	return res
}

func (e *Editor) consolidate(g *gesture, res Result) Result {
	in := g.intent
	g.intent = nil
	idx, err := in.Consolidate(g.instr)
	if err != nil {
		_ = in.Discard()
		return e.cancel(g, err)
	}
	res.Outcome = OutcomeInserted
	res.Program = e.ownerName(g.instr)
	res.Index = idx
	return res
}

// cancel leaves the model untouched and snaps the instruction back.
func (e *Editor) cancel(g *gesture, cause error) Result {
	e.discardIntent(g)
	if g.hasOrigin {
		e.place(g.instr.ID, g.origin)
	}
	if g.spare != nil {
		if slot, ok := e.palette[keyOf(g.instr)]; ok && slot.id == g.spare.ID && !g.instr.Placed() {
			slot.id = g.instr.ID
			if err := g.spare.Remove(false); err != nil {
				e.logger.Debug("Palette spare kept", "id", g.spare.ID, "error", err)
			}
		}
		g.spare = nil
	}
	if cause != nil {
		e.logger.Debug("Gesture cancelled", "id", g.instr.ID, "error", cause)
	}
	return Result{Outcome: OutcomeCancelled, Instruction: g.instr.ID, Index: -1, Err: cause}
}

// settle runs the unconditional end-of-gesture cleanup.
func (e *Editor) settle(g *gesture, res Result) {
	g.state = GestureSettled
	e.discardIntent(g)
	e.highlightZones(false)
	e.animate(ports.TargetTrash, "close")
	if !g.instr.Removed() {
		e.scale(g.instr.ID, 1)
	}
	g.instr.Muted = false

	switch res.Outcome {
	case OutcomeRemoved:
		e.feedback(domain.FeedbackRemove)
	case OutcomeCancelled:
	default:
		e.feedback(domain.FeedbackDrop)
	}

	e.slot.release(g.instr.ID)
	e.gesture = nil
	e.logger.Debug("Gesture settled",
		"id", res.Instruction,
		"outcome", res.Outcome,
		"tap", res.Tap,
		"program", res.Program,
		"index", res.Index,
	)
	for _, fn := range e.onEdit {
		fn(res)
	}
}

// abort drops a gesture that never started dragging.
func (e *Editor) abort(g *gesture) {
	g.instr.Muted = false
	e.slot.release(g.instr.ID)
	e.gesture = nil
}

func (e *Editor) discardIntent(g *gesture) {
	if g.intent == nil {
		return
	}
	if err := g.intent.Discard(); err != nil {
		e.logger.Debug("Insertion preview not discarded", "error", err)
	}
	g.intent = nil
}

func (e *Editor) ownerName(instr *program.Instruction) domain.ProgramName {
	if p := instr.Owner(); p != nil {
		return p.Name
	}
	return ""
}

// zones returns the live zones for a dragged instruction: static ones plus tiles.
func (e *Editor) zones(dragged *program.Instruction) []Zone {
	out := make([]Zone, 0, len(e.layout.Zones)+8)
	out = append(out, e.layout.Zones...)
	return append(out, e.tiles(dragged)...)
}

// tiles builds a zone around every placed instruction except the dragged one.
func (e *Editor) tiles(dragged *program.Instruction) []Zone {
	if e.presentation == nil {
		return nil
	}
	var out []Zone
	for _, p := range e.ws.Programs() {
		for _, instr := range p.Instructions() {
			if instr.Placeholder || instr.ID == dragged.ID {
				continue
			}
			at, ok := e.presentation.ScreenPosition(instr.ID)
			if !ok {
				continue
			}
			out = append(out, Zone{
				Name:    ports.InstructionTarget(instr.ID),
				Kind:    ZoneTile,
				Program: p.Name,
				Anchor:  instr.ID,
				Rect:    domain.Centered(at, e.layout.TileWidth, e.layout.TileHeight),
				Z:       e.layout.TileZ,
			})
		}
	}
	return out
}

func (e *Editor) highlightZones(on bool) {
	if e.presentation == nil {
		return
	}
	for _, z := range e.layout.Zones {
		if z.Kind == ZoneTrash {
			continue
		}
		e.presentation.Highlight(z.Name, on)
	}
}

func (e *Editor) feedback(kind domain.Feedback) {
	if e.presentation != nil {
		e.presentation.PlayFeedback(kind)
	}
}

func (e *Editor) place(id domain.InstructionID, at domain.Point) {
	if e.presentation != nil {
		e.presentation.Place(id, at)
	}
}

func (e *Editor) scale(id domain.InstructionID, factor float64) {
	if e.presentation != nil {
		e.presentation.Scale(id, factor)
	}
}

func (e *Editor) animate(subject, name string) {
	if e.presentation != nil {
		e.presentation.Animate(subject, name, nil)
	}
}

// Describe renders the gesture in flight for logs.
func (e *Editor) Describe() string {
	g := e.gesture
	if g == nil {
		return "idle"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", g.state, g.instr)
	if g.target != nil {
		fmt.Fprintf(&sb, " over %s", g.target.Name)
	}
	if g.intent != nil {
		fmt.Fprintf(&sb, " intent@%d", g.intent.Index())
	}
	return sb.String()
}
