package mazecode

import (
	"fmt"

	"github.com/aretw0/mazecode/pkg/level"
)

// FromLevel creates a session for a puzzle definition: board, starting pose,
// starting programs and palette. Options are applied after the level's own.
func FromLevel(lvl *level.Level, opts ...Option) (*Session, error) {
	base := []Option{
		WithName(lvl.Name),
		WithGrid(lvl.Grid),
		WithAgent(lvl.Agent),
	}
	if lvl.MaxCallDepth > 0 {
		base = append(base, WithMaxCallDepth(lvl.MaxCallDepth))
	}
	s := New(append(base, opts...)...)

	if err := lvl.Validate(s.Conditions()); err != nil {
		return nil, err
	}
	if err := s.Restore(lvl.Programs); err != nil {
		return nil, fmt.Errorf("failed to restore level programs: %w", err)
	}
	s.StockPalette(lvl.Palette, lvl.Conditions)
	return s, nil
}

// LoadLevel reads a level file and creates a session for it.
func LoadLevel(path string, opts ...Option) (*Session, error) {
	lvl, err := level.Load(path)
	if err != nil {
		return nil, err
	}
	return FromLevel(lvl, opts...)
}
