package program

import (
	"fmt"

	"github.com/aretw0/mazecode/pkg/domain"
)

// Instruction is an atomic editable token.
// Identity is stable: instructions are moved between containers, never copied.
type Instruction struct {
	ID   domain.InstructionID
	Kind domain.Kind

	// Predicate names the test evaluated by a condition instruction.
	Predicate string

	// Placeholder marks insertion-preview instances.
	Placeholder bool

	// Muted silences the instruction's own drop and remove cues while a
	// gesture on it is in flight.
	Muted bool

	condition  domain.InstructionID
	attachedTo domain.InstructionID
	owner      domain.ProgramName
	removed    bool
	ws         *Workspace
}

// Condition returns the attached condition, or nil.
func (i *Instruction) Condition() *Instruction {
	if i.condition == 0 {
		return nil
	}
	return i.ws.instructions[i.condition]
}

// AttachedTo returns the host this condition is attached to, or nil.
func (i *Instruction) AttachedTo() *Instruction {
	if i.attachedTo == 0 {
		return nil
	}
	return i.ws.instructions[i.attachedTo]
}

// Owner returns the program currently containing the instruction, or nil if unplaced.
func (i *Instruction) Owner() *Program {
	if i.owner == "" {
		return nil
	}
	return i.ws.programs[i.owner]
}

// Placed reports whether the instruction belongs to a program.
func (i *Instruction) Placed() bool {
	return i.owner != ""
}

// Removed reports whether the instruction was removed from the scene.
func (i *Instruction) Removed() bool {
	return i.removed
}

// Index returns the ordinal position of the instruction in its owner.
// Conditions report the position of their host. It returns -1 when unplaced.
func (i *Instruction) Index() int {
	p := i.Owner()
	if p == nil {
		return -1
	}
	return p.IndexOf(i)
}

// AttachCondition attaches cond to this instruction.
// A different condition already attached is detached first and, unless
// preserveOld is set, removed from the scene. If cond is attached to another
// host, that attachment is broken first.
func (i *Instruction) AttachCondition(cond *Instruction, preserveOld bool) error {
	if err := i.ws.guard("attach condition"); err != nil {
		return err
	}
	switch {
	case cond == nil || cond.removed || i.removed:
		return fmt.Errorf("%w: attach to removed instruction", domain.ErrInvalidEdit)
	case !cond.Kind.IsCondition():
		return fmt.Errorf("%w: %s is not a condition", domain.ErrInvalidEdit, cond.Kind)
	case i.Kind.IsCondition():
		return fmt.Errorf("%w: conditions cannot host conditions", domain.ErrInvalidEdit)
	case i.Placeholder:
		return fmt.Errorf("%w: placeholders cannot carry a condition", domain.ErrInvalidEdit)
	}

	if i.condition == cond.ID {
		return nil
	}

	if old := i.detach(); old != nil && !preserveOld {
		if err := old.Remove(true); err != nil {
			return err
		}
	}

	if prior := cond.AttachedTo(); prior != nil {
		prior.detach()
	}

	cond.attachedTo = i.ID
	cond.owner = i.owner
	i.condition = cond.ID
	if p := i.Owner(); p != nil {
		p.conditionals[p.position(i.ID)] = cond.ID
	}

	i.ws.cue(cond, domain.FeedbackDrop)
	i.ws.logger.Debug("Condition attached",
		"host", i.ID,
		"condition", cond.ID,
		"predicate", cond.Predicate,
		"program", i.owner,
	)
	return nil
}

// DetachCondition breaks the link with the attached condition and returns it.
// The condition stays in the scene, unplaced.
func (i *Instruction) DetachCondition() (*Instruction, error) {
	if err := i.ws.guard("detach condition"); err != nil {
		return nil, err
	}
	return i.detach(), nil
}

func (i *Instruction) detach() *Instruction {
	cond := i.Condition()
	if cond == nil {
		return nil
	}
	if p := i.Owner(); p != nil {
		delete(p.conditionals, p.position(i.ID))
	}
	i.condition = 0
	cond.attachedTo = 0
	cond.owner = ""
	return cond
}

// SetOwner re-parents the instruction into p at position (-1 appends).
// The attached condition travels with it. Conditions cannot be owned
// directly: use AttachCondition on a host instead.
func (i *Instruction) SetOwner(p *Program, position int) error {
	if i.Kind.IsCondition() {
		return fmt.Errorf("%w: conditions are placed through a host", domain.ErrInvalidEdit)
	}
	if p == nil {
		return fmt.Errorf("%w: nil program", domain.ErrUnknownProgram)
	}
	return p.Add(i, position)
}

// Remove takes the instruction out of the scene.
// With cascade, an attached condition is removed as well; otherwise it is left unplaced.
// A condition being removed clears its host's back-reference.
// Removing an already-removed instruction is a no-op. Unplaced instructions
// can be removed while the workspace is frozen.
func (i *Instruction) Remove(cascade bool) error {
	if i.removed {
		return nil
	}
	placed := i.owner != ""
	if placed {
		if err := i.ws.guard("remove"); err != nil {
			return err
		}
	}

	if cond := i.detach(); cond != nil && cascade {
		if err := cond.Remove(true); err != nil {
			return err
		}
	}

	if host := i.AttachedTo(); host != nil {
		host.detach()
	}

	if p := i.Owner(); p != nil && !i.Kind.IsCondition() {
		if err := p.RemoveInstruction(i); err != nil {
			return err
		}
	}

	i.removed = true
	i.owner = ""
	delete(i.ws.instructions, i.ID)
	i.ws.fireRelease(i)
	if placed {
		i.ws.cue(i, domain.FeedbackRemove)
	}

	i.ws.logger.Debug("Instruction removed", "id", i.ID, "kind", i.Kind, "cascade", cascade)
	return nil
}

// String renders the instruction as "kind[condition]".
func (i *Instruction) String() string {
	if i.Placeholder {
		return "(intent)"
	}
	if i.Kind.IsCondition() {
		return i.Predicate
	}
	s := i.Kind.String()
	if cond := i.Condition(); cond != nil {
		s += "[" + cond.Predicate + "]"
	}
	return s
}
