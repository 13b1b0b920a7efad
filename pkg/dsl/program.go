package dsl

import (
	"fmt"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/level"
)

type item struct {
	kind domain.Kind
	cond string
}

// ProgramBuilder provides a fluent API for appending instructions to one slot.
type ProgramBuilder struct {
	name    domain.ProgramName
	builder *Builder
	items   []item
	pending string
	errs    []error
}

// If attaches a condition predicate to the next instruction.
func (p *ProgramBuilder) If(predicate string) *ProgramBuilder {
	if p.pending != "" {
		p.errs = append(p.errs, fmt.Errorf("%w: %s already pending in %s", domain.ErrInvalidEdit, p.pending, p.name))
	}
	p.pending = predicate
	return p
}

// Add appends an instruction of the given kind.
func (p *ProgramBuilder) Add(kind domain.Kind) *ProgramBuilder {
	if kind.IsCondition() {
		p.errs = append(p.errs, fmt.Errorf("%w: use If to attach a condition", domain.ErrInvalidEdit))
		return p
	}
	if _, ok := domainKind(kind); !ok {
		p.errs = append(p.errs, fmt.Errorf("%w: %d", domain.ErrUnknownKind, int(kind)))
		return p
	}
	p.items = append(p.items, item{kind: kind, cond: p.pending})
	p.pending = ""
	return p
}

// Tokens appends instructions written as "kind" or "kind[predicate]".
func (p *ProgramBuilder) Tokens(tokens ...string) *ProgramBuilder {
	for _, tok := range tokens {
		t, err := level.ParseToken(tok)
		if err != nil {
			p.errs = append(p.errs, err)
			continue
		}
		if t.Condition != "" {
			p.If(t.Condition)
		}
		p.Add(t.Kind)
	}
	return p
}

// Forward appends a move-forward instruction.
func (p *ProgramBuilder) Forward() *ProgramBuilder { return p.Add(domain.KindMoveForward) }

// Back appends a move-back instruction.
func (p *ProgramBuilder) Back() *ProgramBuilder { return p.Add(domain.KindMoveBack) }

// Left appends a turn-left instruction.
func (p *ProgramBuilder) Left() *ProgramBuilder { return p.Add(domain.KindTurnLeft) }

// Right appends a turn-right instruction.
func (p *ProgramBuilder) Right() *ProgramBuilder { return p.Add(domain.KindTurnRight) }

// Call1 appends a call to subprogram 1.
func (p *ProgramBuilder) Call1() *ProgramBuilder { return p.Add(domain.KindCallSubprogram1) }

// Call2 appends a call to subprogram 2.
func (p *ProgramBuilder) Call2() *ProgramBuilder { return p.Add(domain.KindCallSubprogram2) }

// Len returns the number of instructions appended so far.
func (p *ProgramBuilder) Len() int { return len(p.items) }

// Done returns the parent builder, for chaining across slots.
func (p *ProgramBuilder) Done() *Builder {
	if p.pending != "" {
		p.errs = append(p.errs, fmt.Errorf("%w: dangling condition %s in %s", domain.ErrInvalidEdit, p.pending, p.name))
		p.pending = ""
	}
	return p.builder
}

func domainKind(kind domain.Kind) (domain.Kind, bool) {
	for _, k := range domain.Kinds {
		if k == kind {
			return k, true
		}
	}
	return 0, false
}
