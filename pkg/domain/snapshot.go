package domain

import "time"

// InstructionSnapshot is the frozen view of one top-level instruction.
type InstructionSnapshot struct {
	ID          InstructionID `json:"id"`
	Kind        Kind          `json:"kind"`
	ConditionID InstructionID `json:"condition_id,omitempty"`
	// Condition holds the predicate name of the attached condition, if any.
	Condition string `json:"condition,omitempty"`
}

// Snapshot is an immutable copy of the three programs.
// Placeholders are never part of a snapshot.
type Snapshot struct {
	Programs map[ProgramName][]InstructionSnapshot `json:"programs"`
	SavedAt  time.Time                             `json:"saved_at,omitempty"`
}

// NewSnapshot creates an empty snapshot with every slot present.
func NewSnapshot() *Snapshot {
	s := &Snapshot{Programs: make(map[ProgramName][]InstructionSnapshot, len(ProgramNames))}
	for _, name := range ProgramNames {
		s.Programs[name] = []InstructionSnapshot{}
	}
	return s
}

// Program returns the instructions of a slot.
func (s *Snapshot) Program(name ProgramName) []InstructionSnapshot {
	if s == nil {
		return nil
	}
	return s.Programs[name]
}

// Len returns the number of top-level instructions across all slots.
func (s *Snapshot) Len() int {
	n := 0
	for _, p := range s.Programs {
		n += len(p)
	}
	return n
}
