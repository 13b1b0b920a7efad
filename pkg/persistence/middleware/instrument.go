package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics counts store operations by outcome.
type StoreMetrics struct {
	Ops *prometheus.CounterVec
}

// NewStoreMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mazecode_store_ops_total",
				Help: "Total number of save slot operations",
			},
			[]string{"op", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Ops)
	}
	return m
}

type instrumentMiddleware struct {
	next    ports.SnapshotStore
	logger  *slog.Logger
	metrics *StoreMetrics
}

// NewInstrumentationMiddleware logs every store operation at debug level and
// counts it on metrics. Either argument may be nil.
func NewInstrumentationMiddleware(logger *slog.Logger, metrics *StoreMetrics) Middleware {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &instrumentMiddleware{next: next, logger: logger, metrics: metrics}
	}
}

func (m *instrumentMiddleware) observe(op, key string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrSnapshotNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	if m.metrics != nil {
		m.metrics.Ops.WithLabelValues(op, outcome).Inc()
	}
	if err != nil && outcome == "error" {
		m.logger.Warn("Store operation failed", "op", op, "slot", key, "err", err)
		return
	}
	m.logger.Debug("Store operation", "op", op, "slot", key, "outcome", outcome)
}

func (m *instrumentMiddleware) Save(ctx context.Context, key string, snap *domain.Snapshot) error {
	err := m.next.Save(ctx, key, snap)
	m.observe("save", key, err)
	return err
}

func (m *instrumentMiddleware) Load(ctx context.Context, key string) (*domain.Snapshot, error) {
	snap, err := m.next.Load(ctx, key)
	m.observe("load", key, err)
	return snap, err
}

func (m *instrumentMiddleware) Delete(ctx context.Context, key string) error {
	err := m.next.Delete(ctx, key)
	m.observe("delete", key, err)
	return err
}

func (m *instrumentMiddleware) List(ctx context.Context) ([]string, error) {
	keys, err := m.next.List(ctx)
	m.observe("list", "", err)
	return keys, err
}
