package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
)

// ErrInvalidSnapshot is returned when a snapshot breaks the program structure.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

type validationMiddleware struct {
	next ports.SnapshotStore
}

// NewValidationMiddleware rejects snapshots that could not be restored into a
// workspace, both when saving and when loading.
func NewValidationMiddleware() Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &validationMiddleware{next: next}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	if err := ValidateSnapshot(snap); err != nil {
		return err
	}
	return m.next.Save(ctx, key, snap)
}

func (m *validationMiddleware) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	snap, err := m.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := ValidateSnapshot(snap); err != nil {
		return nil, fmt.Errorf("slot %q: %w", key, err)
	}
	return snap, nil
}

func (m *validationMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *validationMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// ValidateSnapshot checks that every slot is known, that condition tests only
// appear attached to a host and that no ID is used twice.
func ValidateSnapshot(snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	seen := make(map[domain.InstructionID]bool)
	use := func(id domain.InstructionID) error {
		if id == 0 {
			return nil
		}
		if seen[id] {
			return fmt.Errorf("%w: instruction %d used twice", ErrInvalidSnapshot, id)
		}
		seen[id] = true
		return nil
	}

	for name, instrs := range snap.Programs {
		if !name.Valid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidSnapshot, domain.ErrUnknownProgram, name)
		}
		for i, in := range instrs {
			if !knownKind(in.Kind) {
				return fmt.Errorf("%w: %s[%d]: %w", ErrInvalidSnapshot, name, i, domain.ErrUnknownKind)
			}
			if in.Kind.IsCondition() {
				return fmt.Errorf("%w: %s[%d]: condition test outside a host", ErrInvalidSnapshot, name, i)
			}
			if in.ConditionID != 0 && in.Condition == "" {
				return fmt.Errorf("%w: %s[%d]: condition %d has no predicate", ErrInvalidSnapshot, name, i, in.ConditionID)
			}
			if err := use(in.ID); err != nil {
				return err
			}
			if err := use(in.ConditionID); err != nil {
				return err
			}
		}
	}
	return nil
}

func knownKind(k domain.Kind) bool {
	for _, known := range domain.Kinds {
		if known == k {
			return true
		}
	}
	return false
}
