package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/ports"
)

// Engine runs program snapshots against a grid, one Move at a time.
// Every suspension (settle delay, arrival poll, subprogram) is a timer on the
// Scheduler, so a run only progresses when the scheduler is advanced.
type Engine struct {
	scheduler    *Scheduler
	grid         *domain.Grid
	presentation ports.Presentation
	conditions   *Conditions
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	maxDepth     int

	runSeq uint64
	run    *Run
}

// EngineOption defines a functional option for configuring the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPresentation sets the collaborator receiving feedback and animations.
func WithPresentation(p ports.Presentation) EngineOption {
	return func(e *Engine) {
		e.presentation = p
	}
}

// WithConditions replaces the condition predicate registry.
func WithConditions(c *Conditions) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.conditions = c
		}
	}
}

// WithMaxCallDepth bounds nested subprogram calls (default: domain.DefaultMaxCallDepth).
func WithMaxCallDepth(depth int) EngineOption {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// NewEngine creates an engine bound to a scheduler and a grid.
func NewEngine(scheduler *Scheduler, grid *domain.Grid, opts ...EngineOption) *Engine {
	e := &Engine{
		scheduler:  scheduler,
		grid:       grid,
		conditions: NewConditions(),
		logger:     logging.NewNop(),
		maxDepth:   domain.DefaultMaxCallDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Grid returns the grid the engine moves the agent on.
func (e *Engine) Grid() *domain.Grid { return e.grid }

// Conditions returns the predicate registry.
func (e *Engine) Conditions() *Conditions { return e.conditions }

// Running reports whether a run is in progress.
func (e *Engine) Running() bool { return e.run != nil }

// Current returns the run in progress, if any.
func (e *Engine) Current() *Run { return e.run }

// Start begins executing the main program of snap from the given agent pose.
// onComplete is invoked exactly once, when the run completes, is stopped or fails.
// An empty main program completes before Start returns.
func (e *Engine) Start(ctx context.Context, snap *domain.Snapshot, agent domain.Agent, onComplete func(domain.RunResult)) (*Run, error) {
	if e.run != nil {
		return nil, domain.ErrAlreadyRunning
	}
	if snap == nil {
		snap = domain.NewSnapshot()
	}

	e.runSeq++
	r := &Run{
		ID:         "run-" + strconv.FormatUint(e.runSeq, 10),
		engine:     e,
		ctx:        ctx,
		snap:       snap,
		agent:      agent,
		settled:    agent,
		started:    e.scheduler.Now(),
		onComplete: onComplete,
		logger:     e.logger.With("run_id", "run-"+strconv.FormatUint(e.runSeq, 10)),
	}
	e.run = r

	r.logger.Info("run started", "instructions", len(snap.Program(domain.ProgramMain)), "agent", agent.Position.String(), "facing", agent.Facing)
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{EventBase: r.event(domain.EventRunStart)})
	}

	r.begin(firstMove(snap, domain.ProgramMain))
	return r, nil
}

// Stop halts the run in progress without error.
// The agent is left at its last settled pose. It reports whether a run was stopped.
func (e *Engine) Stop() bool {
	if e.run == nil {
		return false
	}
	e.run.stop()
	return true
}

// Run is the state of one program execution.
type Run struct {
	ID string

	engine     *Engine
	ctx        context.Context
	snap       *domain.Snapshot
	agent      domain.Agent
	settled    domain.Agent
	stack      []*Branch
	current    *Move
	pending    *Timer
	steps      []domain.Step
	started    time.Time
	done       bool
	onComplete func(domain.RunResult)
	logger     *slog.Logger
}

// Agent returns the pose of the agent as the model sees it.
func (r *Run) Agent() domain.Agent { return r.agent }

// Current returns the Move in flight, nil between runs.
func (r *Run) Current() *Move { return r.current }

// Depth returns the number of open branches.
func (r *Run) Depth() int { return len(r.stack) }

// Steps returns the settled steps so far.
func (r *Run) Steps() []domain.Step {
	return append([]domain.Step(nil), r.steps...)
}

// Done reports whether the run reached a terminal status.
func (r *Run) Done() bool { return r.done }

func (r *Run) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: r.engine.scheduler.Now(), Type: t, RunID: r.ID}
}

func (r *Run) after(d time.Duration, fn func()) {
	r.pending = r.engine.scheduler.After(d, func() {
		r.pending = nil
		if r.done {
			return
		}
		fn()
	})
}

func (r *Run) feedback(kind domain.Feedback) {
	if p := r.engine.presentation; p != nil {
		p.PlayFeedback(kind)
	}
}

func (r *Run) animate(subject, name string) {
	if p := r.engine.presentation; p != nil {
		p.Animate(subject, name, nil)
	}
}

func (r *Run) highlight(m *Move, on bool) {
	if p := r.engine.presentation; p != nil && m.Instruction.ID != 0 {
		p.Highlight(ports.InstructionTarget(m.Instruction.ID), on)
	}
}

func (r *Run) step(m *Move) domain.Step {
	return domain.Step{
		Program:     m.Program,
		Index:       m.Index,
		Instruction: m.Instruction.ID,
		Kind:        m.Instruction.Kind,
		Condition:   m.Instruction.Condition,
		Outcome:     m.Outcome,
		Agent:       r.agent,
		Depth:       len(r.stack),
	}
}

// begin starts a Move. A nil Move ends the current program.
func (r *Run) begin(m *Move) {
	if r.done {
		return
	}
	if err := r.ctx.Err(); err != nil {
		r.logger.Debug("run context done", "error", err)
		r.stop()
		return
	}
	if m == nil {
		r.endOfProgram()
		return
	}

	r.current = m
	m.State = MoveSettling
	r.highlight(m, true)
	if h := r.engine.hooks.OnMoveStart; h != nil {
		h(r.ctx, &domain.MoveEvent{EventBase: r.event(domain.EventMoveStart), Step: r.step(m)})
	}

	if pred := m.Instruction.Condition; pred != "" {
		ok, err := r.engine.conditions.Evaluate(pred, r.agent, r.engine.grid)
		if err != nil {
			r.logger.Warn("condition evaluated as false", "condition", pred, "error", err)
		}
		if !ok {
			r.logger.Debug("condition false, host skipped", "program", m.Program, "index", m.Index, "condition", pred)
			r.feedback(domain.FeedbackConditionFalse)
			m.Target, m.Facing = r.agent.Position, r.agent.Facing
			r.after(domain.BlockedSettle, func() { r.settle(m, domain.OutcomeSkipped) })
			return
		}
		r.feedback(domain.FeedbackConditionTrue)
	}

	kind := m.Instruction.Kind
	switch {
	case kind.IsMove():
		r.move(m)
	case kind.IsTurn():
		r.turn(m)
	case kind.IsCall():
		r.call(m)
	default:
		r.logger.Warn("instruction has no effect", "program", m.Program, "index", m.Index, "kind", kind)
		r.settle(m, domain.OutcomeSkipped)
	}
}

func (r *Run) move(m *Move) {
	m.Target, m.Facing = r.agent.Plan(m.Instruction.Kind)
	if !r.engine.grid.CanMoveTo(m.Target) {
		r.logger.Debug("move blocked", "program", m.Program, "index", m.Index, "target", m.Target.String())
		m.Target = r.agent.Position
		r.feedback(domain.FeedbackBlocked)
		r.animate(ports.SubjectAgent, "blocked")
		r.after(domain.BlockedSettle, func() { r.settle(m, domain.OutcomeBlocked) })
		return
	}

	r.agent.Position = m.Target
	r.feedback(domain.FeedbackStep)
	r.animate(ports.SubjectAgent, m.Instruction.Kind.String())
	deadline := r.engine.scheduler.Now().Add(domain.ArrivalTimeout)
	r.awaitArrival(m, deadline)
}

// awaitArrival polls the presentation until the agent marker reaches the target.
func (r *Run) awaitArrival(m *Move, deadline time.Time) {
	r.after(domain.ArrivalPoll, func() {
		p := r.engine.presentation
		if p == nil || p.AgentReached(m.Target) {
			r.settle(m, domain.OutcomeExecuted)
			return
		}
		if !r.engine.scheduler.Now().Before(deadline) {
			r.logger.Warn("agent never reported arrival", "target", m.Target.String())
			r.settle(m, domain.OutcomeExecuted)
			return
		}
		r.awaitArrival(m, deadline)
	})
}

func (r *Run) turn(m *Move) {
	m.Target, m.Facing = r.agent.Plan(m.Instruction.Kind)
	r.agent.Facing = m.Facing
	r.feedback(domain.FeedbackTurn)
	r.animate(ports.SubjectAgent, m.Instruction.Kind.String())
	r.after(domain.TurnSettle, func() { r.settle(m, domain.OutcomeExecuted) })
}

func (r *Run) call(m *Move) {
	callee, _ := m.Instruction.Kind.Callee()
	depth := len(r.stack) + 1
	if depth > r.engine.maxDepth {
		r.fail(fmt.Errorf("%w: %s called at depth %d (max %d)", domain.ErrCallDepthExceeded, callee, depth, r.engine.maxDepth))
		return
	}

	m.Target, m.Facing = r.agent.Position, r.agent.Facing
	b := &Branch{
		Caller:       m.Program,
		Callee:       callee,
		Depth:        depth,
		Call:         m,
		Continuation: m.Next(),
	}
	b.onComplete = func() {
		if h := r.engine.hooks.OnBranchReturn; h != nil {
			h(r.ctx, &domain.BranchEvent{EventBase: r.event(domain.EventBranchReturn), Caller: b.Caller, Callee: b.Callee, Depth: b.Depth})
		}
	}
	m.Branch = b
	r.stack = append(r.stack, b)

	r.logger.Debug("branch entered", "caller", b.Caller, "callee", b.Callee, "depth", depth)
	if h := r.engine.hooks.OnBranchEnter; h != nil {
		h(r.ctx, &domain.BranchEvent{EventBase: r.event(domain.EventBranchEnter), Caller: b.Caller, Callee: b.Callee, Depth: depth})
	}
	r.begin(firstMove(r.snap, callee))
}

// endOfProgram pops one branch and resumes its continuation, or completes the run.
func (r *Run) endOfProgram() {
	if len(r.stack) == 0 {
		r.finish(domain.RunCompleted, nil)
		return
	}
	b := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	r.logger.Debug("branch returned", "caller", b.Caller, "callee", b.Callee, "depth", b.Depth)
	b.complete()
	r.record(b.Call, domain.OutcomeBranched)
	r.begin(b.Continuation)
}

// settle marks a Move done and advances the chain.
func (r *Run) settle(m *Move, outcome domain.MoveOutcome) {
	r.record(m, outcome)
	r.begin(m.Next())
}

func (r *Run) record(m *Move, outcome domain.MoveOutcome) {
	m.State = MoveDone
	m.Outcome = outcome
	r.settled = r.agent
	r.highlight(m, false)

	st := r.step(m)
	r.steps = append(r.steps, st)
	if h := r.engine.hooks.OnMoveSettled; h != nil {
		h(r.ctx, &domain.MoveEvent{EventBase: r.event(domain.EventMoveSettled), Step: st})
	}
}

func (r *Run) stop() {
	if r.done {
		return
	}
	if m := r.current; m != nil && m.State != MoveDone {
		r.highlight(m, false)
	}
	r.agent = r.settled
	r.feedback(domain.FeedbackStop)
	r.finish(domain.RunStopped, nil)
}

func (r *Run) fail(err error) {
	r.logger.Error("run failed", "error", err)
	r.finish(domain.RunFailed, err)
}

func (r *Run) finish(status domain.RunStatus, err error) {
	if r.done {
		return
	}
	r.done = true
	r.pending.Cancel()
	r.pending = nil
	r.current = nil
	r.stack = nil
	if r.engine.run == r {
		r.engine.run = nil
	}
	if status == domain.RunCompleted {
		r.feedback(domain.FeedbackComplete)
	}

	res := domain.RunResult{
		Status:   status,
		Steps:    r.steps,
		Agent:    r.agent,
		Err:      err,
		Duration: r.engine.scheduler.Now().Sub(r.started),
	}
	r.logger.Info("run finished", "status", status, "steps", len(r.steps), "blocked", res.Blocked(), "agent", r.agent.Position.String())
	if h := r.engine.hooks.OnRunEnd; h != nil {
		h(r.ctx, &domain.RunEvent{EventBase: r.event(domain.EventRunEnd), Status: status, Steps: len(r.steps), Err: err})
	}
	if r.onComplete != nil {
		r.onComplete(res)
	}
}
