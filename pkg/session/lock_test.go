package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/mazecode/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, key string, snap *domain.Snapshot) error { return nil }
func (nopStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	return nil, domain.ErrSnapshotNotFound
}
func (nopStore) Delete(ctx context.Context, key string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)   { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("slot-%d", i)
		_ = mgr.Save(ctx, key, domain.NewSnapshot())
		_ = mgr.Delete(ctx, key)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
