package editor

import (
	"fmt"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/program"
)

// Intent is an insertion preview: a placeholder instruction sitting where the
// dragged instruction would land.
type Intent struct {
	ws          *program.Workspace
	placeholder *program.Instruction
	anchor      domain.InstructionID
}

// NewIntent inserts a placeholder right before anchor in anchor's program.
func NewIntent(ws *program.Workspace, anchor *program.Instruction) (*Intent, error) {
	in := &Intent{ws: ws, placeholder: ws.NewPlaceholder()}
	if err := in.MoveTo(anchor); err != nil {
		_ = in.placeholder.Remove(false)
		return nil, err
	}
	return in, nil
}

// MoveTo re-anchors the placeholder before another placed instruction.
func (in *Intent) MoveTo(anchor *program.Instruction) error {
	if anchor.ID == in.anchor {
		return nil
	}
	p := anchor.Owner()
	if p == nil || anchor.Kind.IsCondition() || anchor.Placeholder {
		return fmt.Errorf("%w: intent anchor must be a placed instruction", domain.ErrInvalidEdit)
	}
	if current := in.placeholder.Owner(); current != nil {
		if err := current.RemoveInstruction(in.placeholder); err != nil {
			return err
		}
	}
	if err := p.Add(in.placeholder, anchor.Index()); err != nil {
		return err
	}
	in.anchor = anchor.ID
	return nil
}

// Anchor is the instruction the preview sits in front of.
func (in *Intent) Anchor() domain.InstructionID { return in.anchor }

// Placeholder returns the preview instruction.
func (in *Intent) Placeholder() *program.Instruction { return in.placeholder }

// Program returns the program holding the preview, nil once resolved.
func (in *Intent) Program() *program.Program { return in.placeholder.Owner() }

// Index is the last known position of the preview.
func (in *Intent) Index() int { return in.placeholder.Index() }

// Consolidate replaces the placeholder with real and returns the final index.
// When real sits earlier in the same program the index accounts for its removal.
func (in *Intent) Consolidate(real *program.Instruction) (int, error) {
	p := in.placeholder.Owner()
	if p == nil {
		return -1, fmt.Errorf("%w: intent already resolved", domain.ErrInvalidEdit)
	}
	idx := in.placeholder.Index()
	if err := in.placeholder.Remove(false); err != nil {
		return -1, err
	}
	if real.Owner() == p && real.Index() < idx {
		idx--
	}
	if err := real.SetOwner(p, idx); err != nil {
		return -1, err
	}
	return idx, nil
}

// Discard removes the placeholder without inserting anything.
func (in *Intent) Discard() error {
	return in.placeholder.Remove(false)
}
