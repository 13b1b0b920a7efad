package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/mazecode/pkg/domain"
)

// Entry is one recorded lifecycle event.
type Entry struct {
	Time    time.Time        `json:"time"`
	Type    domain.EventType `json:"type"`
	Message string           `json:"message"`
	Depth   int              `json:"depth"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%-13s %s", e.Type, e.Message)
}

// Recorder keeps the lifecycle events of a session in order.
// Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
}

// NewRecorder creates a recorder keeping at most limit entries (0 keeps all).
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) add(base domain.EventBase, depth int, format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{
		Time:    base.Timestamp,
		Type:    base.Type,
		Message: fmt.Sprintf(format, args...),
		Depth:   depth,
	})
	if r.limit > 0 && len(r.entries) > r.limit {
		r.entries = r.entries[len(r.entries)-r.limit:]
	}
}

// Hooks returns lifecycle hooks feeding the recorder.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			r.add(e.EventBase, 0, "%s", e.RunID)
		},
		OnMoveSettled: func(ctx context.Context, e *domain.MoveEvent) {
			msg := fmt.Sprintf("%s[%d] %s", e.Program, e.Index, e.Kind)
			if e.Condition != "" {
				msg += " if " + e.Condition
			}
			r.add(e.EventBase, e.Depth, "%s -> %s %s %s", msg, e.Outcome, e.Agent.Position, e.Agent.Facing)
		},
		OnBranchEnter: func(ctx context.Context, e *domain.BranchEvent) {
			r.add(e.EventBase, e.Depth, "%s -> %s", e.Caller, e.Callee)
		},
		OnBranchReturn: func(ctx context.Context, e *domain.BranchEvent) {
			r.add(e.EventBase, e.Depth, "%s <- %s", e.Caller, e.Callee)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			if e.Err != nil {
				r.add(e.EventBase, 0, "%s after %d steps: %v", e.Status, e.Steps, e.Err)
				return
			}
			r.add(e.EventBase, 0, "%s after %d steps", e.Status, e.Steps)
		},
	}
}

// Entries returns a copy of the recorded events.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Reset drops every entry.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
