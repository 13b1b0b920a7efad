package ports

import (
	"context"

	"github.com/aretw0/mazecode/pkg/domain"
)

// SnapshotStore defines the interface for persisting program snapshots.
// This allows players to save a puzzle attempt and resume it later.
type SnapshotStore interface {
	// Save persists the snapshot under a key.
	Save(ctx context.Context, key string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a key.
	// Returns domain.ErrSnapshotNotFound if the key does not exist.
	Load(ctx context.Context, key string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a key.
	Delete(ctx context.Context, key string) error

	// List returns the stored keys.
	List(ctx context.Context) ([]string, error)
}
