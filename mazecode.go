package mazecode

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/internal/runtime"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/editor"
	"github.com/aretw0/mazecode/pkg/ports"
	"github.com/aretw0/mazecode/pkg/program"
)

// Session is the explicit context of one play session.
// It is not safe for concurrent use: adapters serving concurrent requests
// must serialize access.
type Session struct {
	Name string

	ws        *program.Workspace
	editor    *editor.Editor
	engine    *runtime.Engine
	scheduler *runtime.Scheduler
	slot      *editor.DragSlot

	grid         *domain.Grid
	start        domain.Agent
	agent        domain.Agent
	presentation ports.Presentation
	conditions   *runtime.Conditions
	layout       *editor.Layout
	hooks        domain.LifecycleHooks
	editHooks    []func(editor.Result)
	logger       *slog.Logger
	strict       bool
	maxDepth     int
	startTime    time.Time

	onRun      []func()
	onStop     []func()
	onComplete []func(domain.RunResult)
	last       *domain.RunResult
}

// Option defines a functional option for configuring the Session.
type Option func(*Session)

// WithName labels the session in logs.
func WithName(name string) Option {
	return func(s *Session) {
		s.Name = name
	}
}

// WithGrid sets the board the agent walks on.
func WithGrid(g *domain.Grid) Option {
	return func(s *Session) {
		s.grid = g
	}
}

// WithAgent sets the starting pose of the agent.
func WithAgent(a domain.Agent) Option {
	return func(s *Session) {
		s.start = a
	}
}

// WithPresentation sets the rendering/audio collaborator.
func WithPresentation(p ports.Presentation) Option {
	return func(s *Session) {
		s.presentation = p
	}
}

// WithLifecycleHooks registers observability hooks on the engine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(s *Session) {
		s.hooks = s.hooks.Merge(hooks)
	}
}

// WithEditHook registers a callback invoked with every settled gesture.
func WithEditHook(fn func(editor.Result)) Option {
	return func(s *Session) {
		s.editHooks = append(s.editHooks, fn)
	}
}

// WithLogger sets a custom structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithStrict turns contract violations (editing while executing, concurrent drags) into panics.
func WithStrict(strict bool) Option {
	return func(s *Session) {
		s.strict = strict
	}
}

// WithMaxCallDepth bounds nested subprogram calls.
func WithMaxCallDepth(depth int) Option {
	return func(s *Session) {
		s.maxDepth = depth
	}
}

// WithConditions replaces the condition predicate registry.
func WithConditions(c *runtime.Conditions) Option {
	return func(s *Session) {
		s.conditions = c
	}
}

// WithLayout sets the editing canvas geometry.
func WithLayout(l editor.Layout) Option {
	return func(s *Session) {
		s.layout = &l
	}
}

// WithStartTime sets the origin of the session's virtual clock.
func WithStartTime(t time.Time) Option {
	return func(s *Session) {
		s.startTime = t
	}
}

// New creates a session. Without options the board is an empty 5x5 grid and
// the agent starts in the top-left cell facing right.
func New(opts ...Option) *Session {
	s := &Session{
		grid:      domain.NewGrid(5, 5),
		start:     *domain.NewAgent(0, 0, domain.FacingRight),
		maxDepth:  domain.DefaultMaxCallDepth,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.Name != "" {
		s.logger = s.logger.With("session", s.Name)
	}
	if s.conditions == nil {
		s.conditions = runtime.NewConditions()
	}
	s.agent = s.start

	s.scheduler = runtime.NewScheduler(s.startTime)
	s.slot = &editor.DragSlot{}
	s.ws = program.NewWorkspace(
		program.WithStrict(s.strict),
		program.WithLogger(s.logger),
	)
	if p := s.presentation; p != nil {
		s.ws.OnRelease(func(instr *program.Instruction) { p.Release(instr.ID) })
	}

	edOpts := []editor.Option{
		editor.WithClock(s.scheduler),
		editor.WithDragSlot(s.slot),
		editor.WithPresentation(s.presentation),
		editor.WithLogger(s.logger),
		editor.WithStrict(s.strict),
	}
	if s.layout != nil {
		edOpts = append(edOpts, editor.WithLayout(*s.layout))
	}
	for _, fn := range s.editHooks {
		edOpts = append(edOpts, editor.WithEditHook(fn))
	}
	s.editor = editor.New(s.ws, edOpts...)

	s.engine = runtime.NewEngine(s.scheduler, s.grid,
		runtime.WithPresentation(s.presentation),
		runtime.WithConditions(s.conditions),
		runtime.WithLifecycleHooks(s.hooks),
		runtime.WithLogger(s.logger),
		runtime.WithMaxCallDepth(s.maxDepth),
	)
	return s
}

// Workspace returns the program arena.
func (s *Session) Workspace() *program.Workspace { return s.ws }

// Editor returns the gesture state machine fed by the input layer.
func (s *Session) Editor() *editor.Editor { return s.editor }

// Scheduler returns the virtual clock driving execution.
func (s *Session) Scheduler() *runtime.Scheduler { return s.scheduler }

// Grid returns the board.
func (s *Session) Grid() *domain.Grid { return s.grid }

// Conditions returns the predicate registry.
func (s *Session) Conditions() *runtime.Conditions { return s.conditions }

// DragSlot returns the active-drag slot.
func (s *Session) DragSlot() *editor.DragSlot { return s.slot }

// Start returns the starting pose of the agent.
func (s *Session) Start() domain.Agent { return s.start }

// Agent returns the current pose of the agent.
func (s *Session) Agent() domain.Agent {
	if run := s.engine.Current(); run != nil {
		return run.Agent()
	}
	return s.agent
}

// Running reports whether a program is executing.
func (s *Session) Running() bool { return s.engine.Running() }

// Last returns the result of the last finished run.
func (s *Session) Last() (domain.RunResult, bool) {
	if s.last == nil {
		return domain.RunResult{}, false
	}
	return *s.last, true
}

// OnRun registers a callback invoked whenever a run starts.
func (s *Session) OnRun(cb func()) {
	s.onRun = append(s.onRun, cb)
}

// OnStop registers a callback invoked whenever a run is stopped from outside.
func (s *Session) OnStop(cb func()) {
	s.onStop = append(s.onStop, cb)
}

// OnComplete registers a callback invoked with the result of every run.
func (s *Session) OnComplete(cb func(domain.RunResult)) {
	s.onComplete = append(s.onComplete, cb)
}

// Run starts executing the main program from the starting pose.
// Any gesture in flight is cancelled and the workspace stays frozen until the
// run ends. Progress happens as the scheduler is advanced.
func (s *Session) Run(ctx context.Context) error {
	if s.engine.Running() {
		return domain.ErrAlreadyRunning
	}
	if s.editor.Cancel() {
		s.logger.Debug("Gesture cancelled by run")
	}

	snap := s.ws.Snapshot()
	s.ws.Freeze()
	s.agent = s.start
	for _, cb := range s.onRun {
		cb()
	}

	_, err := s.engine.Start(ctx, snap, s.start, s.finish)
	if err != nil {
		s.ws.Unfreeze()
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

func (s *Session) finish(res domain.RunResult) {
	s.ws.Unfreeze()
	s.agent = res.Agent
	s.last = &res
	for _, cb := range s.onComplete {
		cb(res)
	}
}

// Stop halts the run in progress without error, leaving the agent at its
// last settled pose. It reports whether a run was stopped.
func (s *Session) Stop() bool {
	if !s.engine.Stop() {
		return false
	}
	for _, cb := range s.onStop {
		cb()
	}
	return true
}

// Advance moves the virtual clock to now, firing due settle and poll callbacks.
func (s *Session) Advance(now time.Time) int {
	return s.scheduler.Advance(now)
}

// AdvanceBy moves the virtual clock forward by d.
func (s *Session) AdvanceBy(d time.Duration) int {
	return s.scheduler.AdvanceBy(d)
}

// Step fires the next due scheduler callback, jumping the virtual clock to it.
// It returns zero when nothing is pending.
func (s *Session) Step() int {
	return s.scheduler.RunUntilIdle(1)
}

// RunToCompletion runs the main program and drives the scheduler until the run ends.
func (s *Session) RunToCompletion(ctx context.Context) (domain.RunResult, error) {
	var result *domain.RunResult
	s.OnComplete(func(res domain.RunResult) {
		if result == nil {
			result = &res
		}
	})
	defer func() { s.onComplete = s.onComplete[:len(s.onComplete)-1] }()

	if err := s.Run(ctx); err != nil {
		return domain.RunResult{}, err
	}
	for result == nil {
		if s.Step() == 0 && result == nil {
			// Nothing left to fire: the run cannot make progress.
			s.Stop()
		}
	}
	return *result, result.Err
}

// Reset stops any run and moves the agent back to its starting pose.
func (s *Session) Reset() {
	s.Stop()
	s.agent = s.start
}

// Stringify renders every program, one per line.
func (s *Session) Stringify() string {
	return program.StringifyAll(s.ws)
}

// Snapshot copies the three programs.
func (s *Session) Snapshot() *domain.Snapshot {
	return s.ws.Snapshot()
}

// Restore replaces every program with the snapshot content.
func (s *Session) Restore(snap *domain.Snapshot) error {
	if s.engine.Running() {
		return fmt.Errorf("restore: %w", domain.ErrFrozen)
	}
	s.editor.Cancel()
	return s.ws.Restore(snap)
}

// AddInstruction creates an instruction and places it in a program at index (-1 appends).
func (s *Session) AddInstruction(name domain.ProgramName, kind domain.Kind, index int) (*program.Instruction, error) {
	p := s.ws.Program(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownProgram, name)
	}
	if kind.IsCondition() {
		return nil, fmt.Errorf("%w: conditions are attached to a host", domain.ErrInvalidEdit)
	}
	instr := s.ws.New(kind)
	if err := p.Add(instr, index); err != nil {
		_ = instr.Remove(false)
		return nil, err
	}
	return instr, nil
}

// AttachCondition creates a condition test and attaches it to a placed host,
// replacing any previous condition.
func (s *Session) AttachCondition(host domain.InstructionID, predicate string) (*program.Instruction, error) {
	instr, ok := s.ws.Instruction(host)
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownInstruction, host)
	}
	if !s.conditions.Known(predicate, s.grid) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCondition, predicate)
	}
	cond := s.ws.NewCondition(predicate)
	if err := instr.AttachCondition(cond, false); err != nil {
		_ = cond.Remove(false)
		return nil, err
	}
	return cond, nil
}

// RemoveInstruction removes an instruction and its condition from the scene.
func (s *Session) RemoveInstruction(id domain.InstructionID) error {
	instr, ok := s.ws.Instruction(id)
	if !ok {
		return fmt.Errorf("%w: %d", domain.ErrUnknownInstruction, id)
	}
	return instr.Remove(true)
}

// StockPalette creates one palette token per kind, plus one condition token per predicate.
// Without kinds every non-condition kind is stocked.
func (s *Session) StockPalette(kinds []domain.Kind, predicates []string) {
	if len(kinds) == 0 {
		kinds = domain.Kinds
	}
	for _, kind := range kinds {
		if kind.IsCondition() {
			continue
		}
		s.editor.Stock(kind, "")
	}
	for _, pred := range predicates {
		s.editor.Stock(domain.KindCondition, pred)
	}
}

// Close tears the session down: any run is stopped and any gesture cancelled.
func (s *Session) Close() {
	s.Stop()
	s.editor.Cancel()
}
