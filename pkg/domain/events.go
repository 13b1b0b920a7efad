package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart     EventType = "run_start"
	EventMoveStart    EventType = "move_start"
	EventMoveSettled  EventType = "move_settled"
	EventBranchEnter  EventType = "branch_enter"
	EventBranchReturn EventType = "branch_return"
	EventRunEnd       EventType = "run_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// MoveEvent represents a Move starting or settling.
type MoveEvent struct {
	EventBase
	Step
}

// BranchEvent represents entering or returning from a subprogram.
type BranchEvent struct {
	EventBase
	Caller ProgramName `json:"caller"`
	Callee ProgramName `json:"callee"`
	Depth  int         `json:"depth"`
}

// RunEvent represents the start or the end of a run.
type RunEvent struct {
	EventBase
	Status RunStatus `json:"status,omitempty"`
	Steps  int       `json:"steps"`
	Err    error     `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnRunStart     func(context.Context, *RunEvent)
	OnMoveStart    func(context.Context, *MoveEvent)
	OnMoveSettled  func(context.Context, *MoveEvent)
	OnBranchEnter  func(context.Context, *BranchEvent)
	OnBranchReturn func(context.Context, *BranchEvent)
	OnRunEnd       func(context.Context, *RunEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart:     chain(h.OnRunStart, other.OnRunStart),
		OnMoveStart:    chain(h.OnMoveStart, other.OnMoveStart),
		OnMoveSettled:  chain(h.OnMoveSettled, other.OnMoveSettled),
		OnBranchEnter:  chain(h.OnBranchEnter, other.OnBranchEnter),
		OnBranchReturn: chain(h.OnBranchReturn, other.OnBranchReturn),
		OnRunEnd:       chain(h.OnRunEnd, other.OnRunEnd),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
