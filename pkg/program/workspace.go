package program

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/domain"
)

// ReleaseFunc is called when an instruction leaves the scene for good,
// so that position-keyed resources (drop zones, sprites) can be freed.
type ReleaseFunc func(*Instruction)

// CueFunc is called when an instruction plays one of its own feedback cues.
type CueFunc func(*Instruction, domain.Feedback)

// Workspace is the arena owning every instruction of a session
// and the three fixed programs.
// It is not safe for concurrent use.
type Workspace struct {
	instructions map[domain.InstructionID]*Instruction
	programs     map[domain.ProgramName]*Program
	nextID       domain.InstructionID

	frozen  bool
	strict  bool
	release []ReleaseFunc
	cues    []CueFunc
	quiet   bool
	logger  *slog.Logger
}

// Option configures the Workspace.
type Option func(*Workspace)

// WithStrict makes contract violations (mutating a frozen workspace) panic
// instead of returning domain.ErrFrozen.
func WithStrict(strict bool) Option {
	return func(w *Workspace) {
		w.strict = strict
	}
}

// WithReleaseHook registers a callback fired when an instruction is removed from the scene.
func WithReleaseHook(fn ReleaseFunc) Option {
	return func(w *Workspace) {
		w.release = append(w.release, fn)
	}
}

// WithCueHook registers a callback fired when an instruction plays a cue.
func WithCueHook(fn CueFunc) Option {
	return func(w *Workspace) {
		w.cues = append(w.cues, fn)
	}
}

// WithLogger configures a logger for the Workspace.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// NewWorkspace creates a workspace with empty main and subprogram slots.
func NewWorkspace(opts ...Option) *Workspace {
	w := &Workspace{
		instructions: make(map[domain.InstructionID]*Instruction),
		programs:     make(map[domain.ProgramName]*Program, len(domain.ProgramNames)),
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, name := range domain.ProgramNames {
		w.programs[name] = &Program{
			Name:         name,
			conditionals: make(map[int]domain.InstructionID),
			ws:           w,
		}
	}
	return w
}

// OnRelease registers an additional release hook after construction.
func (w *Workspace) OnRelease(fn ReleaseFunc) {
	w.release = append(w.release, fn)
}

// OnCue registers an additional cue hook after construction.
func (w *Workspace) OnCue(fn CueFunc) {
	w.cues = append(w.cues, fn)
}

// New creates an unplaced instruction of the given kind.
// Condition tests should be created with NewCondition.
func (w *Workspace) New(kind domain.Kind) *Instruction {
	w.nextID++
	instr := &Instruction{
		ID:   w.nextID,
		Kind: kind,
		ws:   w,
	}
	w.instructions[instr.ID] = instr
	return instr
}

// NewCondition creates an unplaced condition test for the named predicate.
func (w *Workspace) NewCondition(predicate string) *Instruction {
	instr := w.New(domain.KindCondition)
	instr.Predicate = predicate
	return instr
}

// NewPlaceholder creates an insertion-preview instruction.
func (w *Workspace) NewPlaceholder() *Instruction {
	instr := w.New(0)
	instr.Placeholder = true
	return instr
}

// Instruction looks up a live instruction by ID.
func (w *Workspace) Instruction(id domain.InstructionID) (*Instruction, bool) {
	instr, ok := w.instructions[id]
	return instr, ok
}

// Program returns a program slot. It returns nil for unknown names.
func (w *Workspace) Program(name domain.ProgramName) *Program {
	return w.programs[name]
}

// Main returns the main program.
func (w *Workspace) Main() *Program {
	return w.programs[domain.ProgramMain]
}

// Programs returns the slots in canonical order.
func (w *Workspace) Programs() []*Program {
	out := make([]*Program, 0, len(domain.ProgramNames))
	for _, name := range domain.ProgramNames {
		out = append(out, w.programs[name])
	}
	return out
}

// Len returns the number of live instructions, placed or not.
func (w *Workspace) Len() int {
	return len(w.instructions)
}

// Freeze rejects every structural mutation until Unfreeze is called.
func (w *Workspace) Freeze() { w.frozen = true }

// Unfreeze re-enables mutations.
func (w *Workspace) Unfreeze() { w.frozen = false }

// Frozen reports whether the workspace is currently frozen.
func (w *Workspace) Frozen() bool { return w.frozen }

// guard enforces the execution/editing exclusion.
func (w *Workspace) guard(op string) error {
	if !w.frozen {
		return nil
	}
	if w.strict {
		panic(fmt.Sprintf("mazecode: %s while executing: %v", op, domain.ErrFrozen))
	}
	w.logger.Warn("Rejected mutation on frozen workspace", "op", op)
	return fmt.Errorf("%s: %w", op, domain.ErrFrozen)
}

// Snapshot copies the three programs into an immutable value.
// Placeholders are skipped.
func (w *Workspace) Snapshot() *domain.Snapshot {
	snap := domain.NewSnapshot()
	for _, p := range w.Programs() {
		items := make([]domain.InstructionSnapshot, 0, len(p.order))
		for _, id := range p.order {
			instr := w.instructions[id]
			if instr.Placeholder {
				continue
			}
			item := domain.InstructionSnapshot{ID: instr.ID, Kind: instr.Kind}
			if cond := instr.Condition(); cond != nil {
				item.ConditionID = cond.ID
				item.Condition = cond.Predicate
			}
			items = append(items, item)
		}
		snap.Programs[p.Name] = items
	}
	return snap
}

// Restore clears every program and rebuilds them from a snapshot.
// Instructions get fresh identities.
func (w *Workspace) Restore(snap *domain.Snapshot) error {
	if err := w.guard("restore"); err != nil {
		return err
	}
	w.quiet = true
	defer func() { w.quiet = false }()
	for _, p := range w.Programs() {
		for _, instr := range p.Instructions() {
			if err := instr.Remove(true); err != nil {
				return err
			}
		}
	}
	for _, name := range domain.ProgramNames {
		p := w.programs[name]
		for _, item := range snap.Program(name) {
			if item.Kind.IsCondition() {
				return fmt.Errorf("%w: condition %d cannot be top-level", domain.ErrInvalidEdit, item.ID)
			}
			instr := w.New(item.Kind)
			if err := p.Add(instr, -1); err != nil {
				return err
			}
			if item.Condition != "" {
				if err := instr.AttachCondition(w.NewCondition(item.Condition), false); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Check verifies every structural invariant of the arena.
// It is meant for tests and strict-mode assertions.
func (w *Workspace) Check() error {
	for _, p := range w.Programs() {
		seen := make(map[domain.InstructionID]bool, len(p.order))
		for i, id := range p.order {
			instr, ok := w.instructions[id]
			if !ok {
				return fmt.Errorf("%s[%d]: dangling instruction %d", p.Name, i, id)
			}
			if seen[id] {
				return fmt.Errorf("%s[%d]: instruction %d listed twice", p.Name, i, id)
			}
			seen[id] = true
			if instr.owner != p.Name {
				return fmt.Errorf("%s[%d]: owner is %q", p.Name, i, instr.owner)
			}
			if instr.Kind.IsCondition() {
				return fmt.Errorf("%s[%d]: condition listed as top-level", p.Name, i)
			}
			condID, indexed := p.conditionals[i]
			if (instr.condition != 0) != indexed {
				return fmt.Errorf("%s[%d]: conditional index out of sync", p.Name, i)
			}
			if !indexed {
				continue
			}
			if condID != instr.condition {
				return fmt.Errorf("%s[%d]: index holds %d, host holds %d", p.Name, i, condID, instr.condition)
			}
			cond, ok := w.instructions[condID]
			if !ok {
				return fmt.Errorf("%s[%d]: dangling condition %d", p.Name, i, condID)
			}
			if cond.attachedTo != id || cond.owner != p.Name {
				return fmt.Errorf("%s[%d]: condition %d back-reference broken", p.Name, i, condID)
			}
		}
		for pos := range p.conditionals {
			if pos < 0 || pos >= len(p.order) {
				return fmt.Errorf("%s: stale conditional index at %d", p.Name, pos)
			}
		}
	}
	for id, instr := range w.instructions {
		if instr.attachedTo != 0 {
			host, ok := w.instructions[instr.attachedTo]
			if !ok || host.condition != id {
				return fmt.Errorf("instruction %d: attached to %d which does not hold it", id, instr.attachedTo)
			}
		}
		if instr.condition != 0 {
			if _, ok := w.instructions[instr.condition]; !ok {
				return fmt.Errorf("instruction %d: dangling condition %d", id, instr.condition)
			}
		}
		if instr.owner != "" && !instr.Kind.IsCondition() && w.programs[instr.owner].position(id) < 0 {
			return fmt.Errorf("instruction %d: owner %q does not list it", id, instr.owner)
		}
	}
	return nil
}

// cue plays an instruction-level cue unless the instruction is muted.
func (w *Workspace) cue(instr *Instruction, kind domain.Feedback) {
	if w.quiet || instr.Muted || instr.Placeholder {
		return
	}
	for _, fn := range w.cues {
		fn(instr, kind)
	}
}

func (w *Workspace) fireRelease(instr *Instruction) {
	for _, fn := range w.release {
		fn(instr)
	}
}
