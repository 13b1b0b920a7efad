package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/dsl"
	"github.com/aretw0/mazecode/pkg/persistence/middleware"
	"github.com/aretw0/mazecode/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChain_Contract(t *testing.T) {
	store := middleware.Chain(NewMockStore(),
		middleware.NewInstrumentationMiddleware(nil, nil),
		middleware.NewValidationMiddleware(),
	)
	ports.RunSnapshotStoreContract(t, store)
}

func TestChain_Order(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SnapshotStore) ports.SnapshotStore {
			return &tagStore{SnapshotStore: next, name: name, order: &order}
		}
	}

	store := middleware.Chain(NewMockStore(), tag("outer"), nil, tag("inner"))
	require.NoError(t, store.Save(context.Background(), "k", domain.NewSnapshot()))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type tagStore struct {
	ports.SnapshotStore
	name  string
	order *[]string
}

func (s *tagStore) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	*s.order = append(*s.order, s.name)
	return s.SnapshotStore.Save(ctx, key, snap)
}

func TestValidation_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a built program", func(t *testing.T) {
		mock := NewMockStore()
		store := middleware.NewValidationMiddleware()(mock)
		snap := dsl.New().
			Main(func(p *dsl.ProgramBuilder) { p.If("if_coin").Forward().Call1() }).
			Sub1(func(p *dsl.ProgramBuilder) { p.Right() }).
			MustBuild()

		require.NoError(t, store.Save(ctx, "ok", snap))
		assert.Equal(t, 1, mock.saves)
	})

	tests := []struct {
		name string
		snap *domain.Snapshot
	}{
		{name: "nil snapshot", snap: nil},
		{
			name: "unknown program",
			snap: &domain.Snapshot{Programs: map[domain.ProgramName][]domain.InstructionSnapshot{
				"subprogram-3": {{ID: 1, Kind: domain.KindMoveForward}},
			}},
		},
		{
			name: "top level condition",
			snap: &domain.Snapshot{Programs: map[domain.ProgramName][]domain.InstructionSnapshot{
				domain.ProgramMain: {{ID: 1, Kind: domain.KindCondition, Condition: "if_coin"}},
			}},
		},
		{
			name: "unknown kind",
			snap: &domain.Snapshot{Programs: map[domain.ProgramName][]domain.InstructionSnapshot{
				domain.ProgramMain: {{ID: 1, Kind: domain.Kind(42)}},
			}},
		},
		{
			name: "duplicate id",
			snap: &domain.Snapshot{Programs: map[domain.ProgramName][]domain.InstructionSnapshot{
				domain.ProgramMain: {{ID: 1, Kind: domain.KindMoveForward}},
				domain.ProgramSub1: {{ID: 1, Kind: domain.KindTurnLeft}},
			}},
		},
		{
			name: "condition id without predicate",
			snap: &domain.Snapshot{Programs: map[domain.ProgramName][]domain.InstructionSnapshot{
				domain.ProgramMain: {{ID: 1, Kind: domain.KindMoveForward, ConditionID: 2}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockStore()
			store := middleware.NewValidationMiddleware()(mock)

			err := store.Save(ctx, "bad", tt.snap)
			assert.ErrorIs(t, err, middleware.ErrInvalidSnapshot)
			assert.Zero(t, mock.saves, "invalid snapshot must not reach the store")
		})
	}
}

func TestValidation_Load(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStore()
	mock.data["corrupt"] = &domain.Snapshot{Programs: map[domain.ProgramName][]domain.InstructionSnapshot{
		domain.ProgramMain: {{ID: 7, Kind: domain.KindCondition, Condition: "if_coin"}},
	}}
	store := middleware.NewValidationMiddleware()(mock)

	_, err := store.Load(ctx, "corrupt")
	assert.ErrorIs(t, err, middleware.ErrInvalidSnapshot)
	assert.Contains(t, err.Error(), `slot "corrupt"`)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestInstrumentation(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	metrics := middleware.NewStoreMetrics(reg)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mock := NewMockStore()
	store := middleware.NewInstrumentationMiddleware(logger, metrics)(mock)

	require.NoError(t, store.Save(ctx, "a", domain.NewSnapshot()))
	_, err := store.Load(ctx, "a")
	require.NoError(t, err)
	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)

	mock.fail = errDisk
	assert.ErrorIs(t, store.Save(ctx, "b", domain.NewSnapshot()), errDisk)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Ops.WithLabelValues("save", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Ops.WithLabelValues("save", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Ops.WithLabelValues("load", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Ops.WithLabelValues("load", "not_found")))

	out := buf.String()
	assert.Contains(t, out, "Store operation failed")
	assert.Contains(t, out, "err=")
	assert.Contains(t, out, "slot=b")
}
