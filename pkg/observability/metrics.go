package observability

import (
	"context"

	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/editor"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by a session.
type Metrics struct {
	Runs        *prometheus.CounterVec
	Moves       *prometheus.CounterVec
	Branches    prometheus.Counter
	BranchDepth prometheus.Histogram
	RunDuration prometheus.Histogram
	Edits       *prometheus.CounterVec
	Running     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mazecode_runs_total",
				Help: "Total number of finished program runs",
			},
			[]string{"status"},
		),
		Moves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mazecode_moves_total",
				Help: "Total number of settled moves",
			},
			[]string{"kind", "outcome"},
		),
		Branches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mazecode_branches_total",
			Help: "Total number of subprogram calls",
		}),
		BranchDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mazecode_branch_depth",
			Help:    "Call depth reached when entering a subprogram",
			Buckets: prometheus.LinearBuckets(1, 1, domain.DefaultMaxCallDepth),
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mazecode_run_duration_seconds",
			Help:    "Virtual duration of program runs",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		Edits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mazecode_edits_total",
				Help: "Total number of settled editing gestures",
			},
			[]string{"outcome"},
		),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mazecode_running",
			Help: "1 while a program is executing",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Moves, m.Branches, m.BranchDepth, m.RunDuration, m.Edits, m.Running)
	}
	return m
}

// Hooks returns lifecycle hooks that record engine activity.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			m.Running.Set(1)
		},
		OnMoveSettled: func(ctx context.Context, e *domain.MoveEvent) {
			m.Moves.WithLabelValues(e.Kind.String(), string(e.Outcome)).Inc()
		},
		OnBranchEnter: func(ctx context.Context, e *domain.BranchEvent) {
			m.Branches.Inc()
			m.BranchDepth.Observe(float64(e.Depth))
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			m.Running.Set(0)
			m.Runs.WithLabelValues(string(e.Status)).Inc()
		},
	}
}

// ObserveRun records the virtual duration of a finished run.
func (m *Metrics) ObserveRun(res domain.RunResult) {
	m.RunDuration.Observe(res.Duration.Seconds())
}

// ObserveEdit records a settled gesture. It matches the editor hook signature.
func (m *Metrics) ObserveEdit(res editor.Result) {
	m.Edits.WithLabelValues(string(res.Outcome)).Inc()
}
