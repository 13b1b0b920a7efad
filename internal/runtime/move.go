package runtime

import (
	"github.com/aretw0/mazecode/pkg/domain"
)

// MoveState is the suspend/resume state of a single Move.
type MoveState int

const (
	MoveScheduled MoveState = iota
	MoveSettling
	MoveDone
)

func (s MoveState) String() string {
	switch s {
	case MoveScheduled:
		return "scheduled"
	case MoveSettling:
		return "settling"
	case MoveDone:
		return "done"
	default:
		return "unknown"
	}
}

// Move is the execution-time node derived from one top-level instruction.
// Moves form a singly-linked chain per program, built on demand.
type Move struct {
	Program     domain.ProgramName
	Index       int
	Instruction domain.InstructionSnapshot

	// Target and Facing are the pose this Move produces, resolved when it starts.
	Target domain.Position
	Facing domain.Facing

	State   MoveState
	Outcome domain.MoveOutcome

	// Branch is set on call Moves once the callee starts.
	Branch *Branch

	snap  *domain.Snapshot
	next  *Move
	built bool
}

// firstMove returns the head of a program chain, nil when the program is empty.
func firstMove(snap *domain.Snapshot, name domain.ProgramName) *Move {
	return moveAt(snap, name, 0)
}

func moveAt(snap *domain.Snapshot, name domain.ProgramName, index int) *Move {
	items := snap.Program(name)
	if index < 0 || index >= len(items) {
		return nil
	}
	return &Move{
		Program:     name,
		Index:       index,
		Instruction: items[index],
		snap:        snap,
	}
}

// Next returns the Move that follows this one in its program, building it on first use.
// It returns nil at the end of the chain.
func (m *Move) Next() *Move {
	if !m.built {
		m.next = moveAt(m.snap, m.Program, m.Index+1)
		m.built = true
	}
	return m.next
}

// Kind is the kind of the underlying instruction.
func (m *Move) Kind() domain.Kind { return m.Instruction.Kind }

// Branch pairs the continuation of a call with its completion callback.
type Branch struct {
	Caller domain.ProgramName
	Callee domain.ProgramName
	Depth  int

	// Call is the Move that opened the branch.
	Call *Move
	// Continuation is the Move that follows the call, nil when the call ends its program.
	Continuation *Move

	onComplete func()
}

// complete invokes the completion callback exactly once.
func (b *Branch) complete() {
	if b.onComplete != nil {
		fn := b.onComplete
		b.onComplete = nil
		fn()
	}
}
