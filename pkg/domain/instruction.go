package domain

import (
	"fmt"
	"strings"
)

// InstructionID is the stable identity of an instruction inside a workspace.
// The zero value means "no instruction".
type InstructionID uint64

// Kind is the closed enumeration of instruction kinds.
// It is decided when the instruction is created and never re-derived.
type Kind int

const (
	KindMoveForward Kind = iota + 1
	KindMoveBack
	KindTurnLeft
	KindTurnRight
	KindCallSubprogram1
	KindCallSubprogram2
	KindCondition
)

var kindNames = map[Kind]string{
	KindMoveForward:     "move-forward",
	KindMoveBack:        "move-back",
	KindTurnLeft:        "turn-left",
	KindTurnRight:       "turn-right",
	KindCallSubprogram1: "call-subprogram-1",
	KindCallSubprogram2: "call-subprogram-2",
	KindCondition:       "condition-test",
}

// Kinds lists every kind in palette order.
var Kinds = []Kind{
	KindTurnLeft,
	KindTurnRight,
	KindMoveForward,
	KindMoveBack,
	KindCallSubprogram1,
	KindCallSubprogram2,
	KindCondition,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsMove reports whether the kind translates the agent.
func (k Kind) IsMove() bool { return k == KindMoveForward || k == KindMoveBack }

// IsTurn reports whether the kind rotates the agent.
func (k Kind) IsTurn() bool { return k == KindTurnLeft || k == KindTurnRight }

// IsCall reports whether the kind invokes a subprogram.
func (k Kind) IsCall() bool { return k == KindCallSubprogram1 || k == KindCallSubprogram2 }

// IsCondition reports whether the kind is a condition test.
func (k Kind) IsCondition() bool { return k == KindCondition }

// Callee returns the program invoked by a call kind.
func (k Kind) Callee() (ProgramName, bool) {
	switch k {
	case KindCallSubprogram1:
		return ProgramSub1, true
	case KindCallSubprogram2:
		return ProgramSub2, true
	}
	return "", false
}

// ParseKind maps a canonical kind name to its Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.TrimSpace(name)
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ProgramName identifies one of the three fixed program slots.
type ProgramName string

const (
	ProgramMain ProgramName = "main"
	ProgramSub1 ProgramName = "subprogram-1"
	ProgramSub2 ProgramName = "subprogram-2"
)

// ProgramNames lists the slots in their canonical order.
var ProgramNames = []ProgramName{ProgramMain, ProgramSub1, ProgramSub2}

// Valid reports whether the name is one of the fixed slots.
func (p ProgramName) Valid() bool {
	return p == ProgramMain || p == ProgramSub1 || p == ProgramSub2
}

// ParseProgramName validates a program slot name.
func ParseProgramName(name string) (ProgramName, error) {
	p := ProgramName(strings.TrimSpace(name))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}
	return p, nil
}
