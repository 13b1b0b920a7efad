package dsl

import (
	"fmt"

	"github.com/aretw0/mazecode/pkg/domain"
)

// Builder is the entry point for constructing the three program slots.
type Builder struct {
	programs map[domain.ProgramName]*ProgramBuilder
	errs     []error
}

// New creates a new DSL builder with every slot empty.
func New() *Builder {
	b := &Builder{programs: make(map[domain.ProgramName]*ProgramBuilder, len(domain.ProgramNames))}
	for _, name := range domain.ProgramNames {
		b.programs[name] = &ProgramBuilder{name: name, builder: b}
	}
	return b
}

// Program returns the builder of a slot.
// An unknown name is recorded and reported by Build.
func (b *Builder) Program(name domain.ProgramName) *ProgramBuilder {
	p, ok := b.programs[name]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", domain.ErrUnknownProgram, name))
		return &ProgramBuilder{name: name, builder: b}
	}
	return p
}

// Main configures the main program.
func (b *Builder) Main(fn func(*ProgramBuilder)) *Builder {
	fn(b.programs[domain.ProgramMain])
	return b
}

// Sub1 configures subprogram 1.
func (b *Builder) Sub1(fn func(*ProgramBuilder)) *Builder {
	fn(b.programs[domain.ProgramSub1])
	return b
}

// Sub2 configures subprogram 2.
func (b *Builder) Sub2(fn func(*ProgramBuilder)) *Builder {
	fn(b.programs[domain.ProgramSub2])
	return b
}

// Build returns a snapshot of the programs.
// Identities are assigned in slot order, each condition right after its host.
func (b *Builder) Build() (*domain.Snapshot, error) {
	for _, name := range domain.ProgramNames {
		p := b.programs[name]
		p.Done()
		b.errs = append(b.errs, p.errs...)
		p.errs = nil
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("dsl: %w", b.errs[0])
	}

	snap := domain.NewSnapshot()
	var next domain.InstructionID
	for _, name := range domain.ProgramNames {
		p := b.programs[name]
		items := make([]domain.InstructionSnapshot, 0, len(p.items))
		for _, it := range p.items {
			next++
			item := domain.InstructionSnapshot{ID: next, Kind: it.kind}
			if it.cond != "" {
				next++
				item.ConditionID = next
				item.Condition = it.cond
			}
			items = append(items, item)
		}
		snap.Programs[name] = items
	}
	return snap, nil
}

// MustBuild is like Build but panics on error. Intended for tests and fixtures.
func (b *Builder) MustBuild() *domain.Snapshot {
	snap, err := b.Build()
	if err != nil {
		panic(err)
	}
	return snap
}
