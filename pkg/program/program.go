package program

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/mazecode/pkg/domain"
)

// Program is a named ordered sequence of top-level instructions
// plus the conditional index keyed by ordinal position.
type Program struct {
	Name domain.ProgramName

	order        []domain.InstructionID
	conditionals map[int]domain.InstructionID
	ws           *Workspace
}

// Len returns the number of top-level instructions, placeholders included.
func (p *Program) Len() int {
	return len(p.order)
}

// At returns the instruction at an ordinal position, or nil.
func (p *Program) At(index int) *Instruction {
	if index < 0 || index >= len(p.order) {
		return nil
	}
	return p.ws.instructions[p.order[index]]
}

// Instructions returns the top-level instructions in order.
func (p *Program) Instructions() []*Instruction {
	out := make([]*Instruction, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.ws.instructions[id])
	}
	return out
}

// Conditional returns the condition indexed at a position, or nil.
func (p *Program) Conditional(index int) *Instruction {
	id, ok := p.conditionals[index]
	if !ok {
		return nil
	}
	return p.ws.instructions[id]
}

// ConditionalIndex returns a copy of the position → condition mapping.
func (p *Program) ConditionalIndex() map[int]domain.InstructionID {
	out := make(map[int]domain.InstructionID, len(p.conditionals))
	for k, v := range p.conditionals {
		out[k] = v
	}
	return out
}

// IndexOf returns the ordinal position of instr, or -1.
// For a condition it returns the position of its host.
func (p *Program) IndexOf(instr *Instruction) int {
	if instr == nil {
		return -1
	}
	if instr.Kind.IsCondition() {
		for pos, id := range p.conditionals {
			if id == instr.ID {
				return pos
			}
		}
		return -1
	}
	return p.position(instr.ID)
}

func (p *Program) position(id domain.InstructionID) int {
	return slices.Index(p.order, id)
}

// Add inserts instr at position atIndex, or appends when atIndex is -1
// (or out of range). Subsequent positions and the conditional index shift up by one.
// An instruction already owned by a program is taken out of it first.
func (p *Program) Add(instr *Instruction, atIndex int) error {
	if err := p.ws.guard("add instruction"); err != nil {
		return err
	}
	if instr == nil || instr.removed {
		return fmt.Errorf("%w: add removed instruction", domain.ErrUnknownInstruction)
	}
	if instr.Kind.IsCondition() {
		return fmt.Errorf("%w: conditions are not top-level", domain.ErrInvalidEdit)
	}

	if current := instr.Owner(); current != nil {
		if err := current.RemoveInstruction(instr); err != nil {
			return err
		}
	}

	if atIndex < 0 || atIndex > len(p.order) {
		atIndex = len(p.order)
	}

	p.order = slices.Insert(p.order, atIndex, instr.ID)
	p.shift(atIndex, +1)

	instr.owner = p.Name
	if cond := instr.Condition(); cond != nil {
		cond.owner = p.Name
		p.conditionals[atIndex] = cond.ID
	}
	return nil
}

// RemoveInstruction removes instr by identity. Subsequent positions and the
// conditional index shift down by one. Removing an absent instruction is a no-op.
// The instruction keeps its condition and becomes unplaced.
func (p *Program) RemoveInstruction(instr *Instruction) error {
	if instr == nil {
		return nil
	}
	pos := p.position(instr.ID)
	if pos < 0 {
		return nil
	}
	if err := p.ws.guard("remove instruction"); err != nil {
		return err
	}

	p.order = slices.Delete(p.order, pos, pos+1)
	delete(p.conditionals, pos)
	p.shift(pos+1, -1)

	instr.owner = ""
	if cond := instr.Condition(); cond != nil {
		cond.owner = ""
	}
	return nil
}

// SetConditionalAt attaches cond to the host at index, replacing (and removing)
// any previous condition there.
func (p *Program) SetConditionalAt(index int, cond *Instruction) error {
	host := p.At(index)
	if host == nil {
		return fmt.Errorf("%w: no host at %s[%d]", domain.ErrInvalidEdit, p.Name, index)
	}
	return host.AttachCondition(cond, false)
}

// shift moves every conditional key >= from by delta.
func (p *Program) shift(from, delta int) {
	if len(p.conditionals) == 0 {
		return
	}
	shifted := make(map[int]domain.InstructionID, len(p.conditionals))
	for pos, id := range p.conditionals {
		if pos >= from {
			pos += delta
		}
		shifted[pos] = id
	}
	p.conditionals = shifted
}

// Stringify renders a deterministic trace of the program:
//
//	main: 0:move-forward[if_coin] 1:turn-left
func Stringify(p *Program) string {
	var sb strings.Builder
	sb.WriteString(string(p.Name))
	sb.WriteString(":")
	for i, instr := range p.Instructions() {
		fmt.Fprintf(&sb, " %d:%s", i, instr)
	}
	return sb.String()
}

// StringifyAll renders every program, one per line.
func StringifyAll(w *Workspace) string {
	lines := make([]string, 0, len(domain.ProgramNames))
	for _, p := range w.Programs() {
		lines = append(lines, Stringify(p))
	}
	return strings.Join(lines, "\n")
}
