package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/mazecode"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/dsl"
	"github.com/aretw0/mazecode/pkg/editor"
	"github.com/aretw0/mazecode/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, hooks domain.LifecycleHooks, opts ...mazecode.Option) *mazecode.Session {
	t.Helper()
	s := mazecode.New(append([]mazecode.Option{
		mazecode.WithGrid(domain.NewGrid(3, 1)),
		mazecode.WithAgent(*domain.NewAgent(0, 0, domain.FacingRight)),
		mazecode.WithStartTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		mazecode.WithLifecycleHooks(hooks),
	}, opts...)...)

	snap := dsl.New().
		Main(func(p *dsl.ProgramBuilder) { p.Forward().Call1() }).
		Sub1(func(p *dsl.ProgramBuilder) { p.Forward().Forward() }).
		MustBuild()
	require.NoError(t, s.Restore(snap))
	return s
}

func gather(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matches(m, labels) {
				switch {
				case m.Counter != nil:
					return m.Counter.GetValue()
				case m.Gauge != nil:
					return m.Gauge.GetValue()
				case m.Histogram != nil:
					return float64(m.Histogram.GetSampleCount())
				}
			}
		}
	}
	return 0
}

func matches(m *dto.Metric, labels map[string]string) bool {
	for _, lp := range m.GetLabel() {
		if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	s := newSession(t, metrics.Hooks())
	s.OnComplete(metrics.ObserveRun)

	res, err := s.RunToCompletion(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.RunCompleted, res.Status)

	assert.Equal(t, 1.0, gather(t, reg, "mazecode_runs_total", map[string]string{"status": "completed"}))
	assert.Equal(t, 2.0, gather(t, reg, "mazecode_moves_total", map[string]string{"kind": "move-forward", "outcome": "executed"}))
	assert.Equal(t, 1.0, gather(t, reg, "mazecode_moves_total", map[string]string{"kind": "move-forward", "outcome": "blocked"}))
	assert.Equal(t, 1.0, gather(t, reg, "mazecode_moves_total", map[string]string{"kind": "call-subprogram-1", "outcome": "branched"}))
	assert.Equal(t, 1.0, gather(t, reg, "mazecode_branches_total", nil))
	assert.Equal(t, 1.0, gather(t, reg, "mazecode_branch_depth", nil))
	assert.Equal(t, 1.0, gather(t, reg, "mazecode_run_duration_seconds", nil))
	assert.Equal(t, 0.0, gather(t, reg, "mazecode_running", nil))
}

func TestMetrics_ObserveEdit(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	metrics.ObserveEdit(editor.Result{Outcome: editor.OutcomeAppended})
	metrics.ObserveEdit(editor.Result{Outcome: editor.OutcomeAppended})
	metrics.ObserveEdit(editor.Result{Outcome: editor.OutcomeCancelled})

	assert.Equal(t, 2.0, gather(t, reg, "mazecode_edits_total", map[string]string{"outcome": "appended"}))
	assert.Equal(t, 1.0, gather(t, reg, "mazecode_edits_total", map[string]string{"outcome": "cancelled"}))
}

func TestRecorder_Trace(t *testing.T) {
	rec := observability.NewRecorder(0)
	s := newSession(t, rec.Hooks())

	_, err := s.RunToCompletion(context.Background())
	require.NoError(t, err)

	entries := rec.Entries()
	types := make([]domain.EventType, len(entries))
	for i, e := range entries {
		types[i] = e.Type
	}
	assert.Equal(t, []domain.EventType{
		domain.EventRunStart,
		domain.EventMoveSettled,
		domain.EventBranchEnter,
		domain.EventMoveSettled,
		domain.EventMoveSettled,
		domain.EventBranchReturn,
		domain.EventMoveSettled,
		domain.EventRunEnd,
	}, types)
	assert.Contains(t, entries[len(entries)-1].Message, "completed after 4 steps")
	assert.Contains(t, entries[4].Message, "blocked")

	rec.Reset()
	assert.Empty(t, rec.Entries())
}

func TestRecorder_Limit(t *testing.T) {
	rec := observability.NewRecorder(2)
	s := newSession(t, rec.Hooks())

	_, err := s.RunToCompletion(context.Background())
	require.NoError(t, err)

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EventRunEnd, entries[1].Type)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newSession(t, observability.LogHooks(logger))

	_, err := s.RunToCompletion(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "msg=run_start")
	assert.Contains(t, out, "msg=branch_enter")
	assert.Contains(t, out, "outcome=blocked")
	assert.Equal(t, 1, strings.Count(out, "msg=run_end"))
}
