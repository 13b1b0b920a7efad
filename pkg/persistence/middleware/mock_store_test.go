package middleware_test

import (
	"context"
	"errors"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data  map[string]*domain.Snapshot
	saves int
	fail  error
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Snapshot),
	}
}

func (s *MockStore) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	if s.fail != nil {
		return s.fail
	}
	s.saves++
	s.data[key] = snap
	return nil
}

func (s *MockStore) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	snap, ok := s.data[key]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *MockStore) Delete(ctx context.Context, key string) error {
	delete(s.data, key)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.SnapshotStore = (*MockStore)(nil)

var errDisk = errors.New("disk full")
