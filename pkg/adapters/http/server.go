package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/mazecode"
	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/observability"
	"github.com/aretw0/mazecode/pkg/program"
	"github.com/aretw0/mazecode/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Game is the session surface exposed over HTTP. *mazecode.Session implements it.
type Game interface {
	Snapshot() *domain.Snapshot
	Restore(snap *domain.Snapshot) error
	Stringify() string
	AddInstruction(name domain.ProgramName, kind domain.Kind, index int) (*program.Instruction, error)
	AttachCondition(host domain.InstructionID, predicate string) (*program.Instruction, error)
	RemoveInstruction(id domain.InstructionID) error
	Run(ctx context.Context) error
	Step() int
	OnComplete(cb func(domain.RunResult))
	Stop() bool
	Reset()
	Agent() domain.Agent
	Running() bool
}

// Server serves one game. Every call into the game is serialized on mu.
type Server struct {
	game    Game
	mu      sync.Mutex
	saves   *session.Manager
	streams *StreamManager
	metrics prometheus.Gatherer
	trace   *observability.Recorder
	pace    time.Duration
	logger  *slog.Logger

	runMu sync.Mutex
	done  chan domain.RunResult
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSaves enables the /saves routes.
func WithSaves(m *session.Manager) Option {
	return func(s *Server) {
		s.saves = m
	}
}

// WithStreams sets the SSE fan-out. Its Hooks must be registered on the game
// for run events to reach /events.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.streams = sm
	}
}

// WithMetrics exposes a Prometheus gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = g
	}
}

// WithTrace exposes the recorder on /trace. Its Hooks must be registered on
// the game.
func WithTrace(rec *observability.Recorder) Option {
	return func(s *Server) {
		s.trace = rec
	}
}

// WithPace waits d between the scheduler steps of POST /run, so a run can be
// followed on /events. Zero steps as fast as the lock allows.
func WithPace(d time.Duration) Option {
	return func(s *Server) {
		s.pace = d
	}
}

// NewServer creates a server for game.
func NewServer(game Game, opts ...Option) *Server {
	s := &Server{game: game, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.streams == nil {
		s.streams = NewStreamManager(s.logger)
	}
	game.OnComplete(s.completed)
	return s
}

// completed hands a finished run to the POST /run waiting for it.
func (s *Server) completed(res domain.RunResult) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.done != nil {
		s.done <- res
		s.done = nil
	}
}

func (s *Server) await(done chan domain.RunResult) chan domain.RunResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	prev := s.done
	s.done = done
	return prev
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Get("/programs", s.GetPrograms)
	r.Put("/programs", s.PutPrograms)
	r.Post("/programs/{program}/instructions", s.AddInstruction)
	r.Delete("/instructions/{id}", s.RemoveInstruction)
	r.Put("/instructions/{id}/condition", s.AttachCondition)

	r.Post("/run", s.Run)
	r.Post("/stop", s.Stop)
	r.Post("/reset", s.Reset)
	r.Get("/agent", s.GetAgent)
	r.Get("/events", s.SubscribeEvents)

	if s.trace != nil {
		r.Get("/trace", s.GetTrace)
		r.Delete("/trace", s.ResetTrace)
	}

	if s.saves != nil {
		r.Get("/saves", s.ListSaves)
		r.Put("/saves/{key}", s.SaveProgram)
		r.Post("/saves/{key}/restore", s.RestoreSave)
		r.Delete("/saves/{key}", s.DeleteSave)
	}
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}
	return r
}

// NewHandler creates a handler for game with default options.
func NewHandler(game Game, opts ...Option) http.Handler {
	return NewServer(game, opts...).Handler()
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProgramsResponse is the body of GET /programs.
type ProgramsResponse struct {
	Snapshot *domain.Snapshot `json:"snapshot"`
	Text     string           `json:"text"`
}

// AddInstructionRequest is the body of POST /programs/{program}/instructions.
type AddInstructionRequest struct {
	Kind  domain.Kind `json:"kind"`
	Index *int        `json:"index,omitempty"`
}

// ConditionRequest is the body of PUT /instructions/{id}/condition.
type ConditionRequest struct {
	Predicate string `json:"predicate"`
}

// InstructionResponse describes a created instruction.
type InstructionResponse struct {
	ID      domain.InstructionID `json:"id"`
	Kind    domain.Kind          `json:"kind"`
	Program domain.ProgramName   `json:"program,omitempty"`
	Index   int                  `json:"index"`
}

// RunResponse is the body of POST /run.
type RunResponse struct {
	domain.RunResult
	Error string `json:"error,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownProgram),
		errors.Is(err, domain.ErrUnknownInstruction),
		errors.Is(err, domain.ErrSnapshotNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidEdit),
		errors.Is(err, domain.ErrUnknownKind),
		errors.Is(err, domain.ErrUnknownCondition):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrFrozen),
		errors.Is(err, domain.ErrAlreadyRunning):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "err", err)
	}
	http.Error(w, fmt.Sprintf("%s: %v", op, err), status)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, op string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn(op+": Invalid request body", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func instructionID(w http.ResponseWriter, r *http.Request) (domain.InstructionID, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "Invalid instruction id", http.StatusBadRequest)
		return 0, false
	}
	return domain.InstructionID(id), true
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "mazecode-http",
		"version": strings.TrimSpace(mazecode.Version),
	})
}

// GetPrograms handles GET /programs.
func (s *Server) GetPrograms(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := ProgramsResponse{Snapshot: s.game.Snapshot(), Text: s.game.Stringify()}
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, resp)
}

// PutPrograms handles PUT /programs, replacing every program.
func (s *Server) PutPrograms(w http.ResponseWriter, r *http.Request) {
	var snap domain.Snapshot
	if !s.decode(w, r, "PutPrograms", &snap) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.Restore(&snap); err != nil {
		s.writeError(w, "Restore", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ProgramsResponse{Snapshot: s.game.Snapshot(), Text: s.game.Stringify()})
}

// AddInstruction handles POST /programs/{program}/instructions.
func (s *Server) AddInstruction(w http.ResponseWriter, r *http.Request) {
	name, err := domain.ParseProgramName(chi.URLParam(r, "program"))
	if err != nil {
		s.writeError(w, "AddInstruction", err)
		return
	}
	var body AddInstructionRequest
	if !s.decode(w, r, "AddInstruction", &body) {
		return
	}
	index := -1
	if body.Index != nil {
		index = *body.Index
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	instr, err := s.game.AddInstruction(name, body.Kind, index)
	if err != nil {
		s.writeError(w, "AddInstruction", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, InstructionResponse{ID: instr.ID, Kind: instr.Kind, Program: name, Index: instr.Index()})
}

// RemoveInstruction handles DELETE /instructions/{id}.
func (s *Server) RemoveInstruction(w http.ResponseWriter, r *http.Request) {
	id, ok := instructionID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.RemoveInstruction(id); err != nil {
		s.writeError(w, "RemoveInstruction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachCondition handles PUT /instructions/{id}/condition.
func (s *Server) AttachCondition(w http.ResponseWriter, r *http.Request) {
	id, ok := instructionID(w, r)
	if !ok {
		return
	}
	var body ConditionRequest
	if !s.decode(w, r, "AttachCondition", &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cond, err := s.game.AttachCondition(id, body.Predicate)
	if err != nil {
		s.writeError(w, "AttachCondition", err)
		return
	}
	s.writeJSON(w, http.StatusOK, InstructionResponse{ID: cond.ID, Kind: cond.Kind, Index: -1})
}

// Run handles POST /run: the main program runs to completion in virtual time
// and the response carries its result. The lock is held for one scheduler step
// at a time, so /stop and /agent are served while the run is in flight.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	done := make(chan domain.RunResult, 1)
	s.mu.Lock()
	prev := s.await(done)
	err := s.game.Run(r.Context())
	if err != nil {
		s.await(prev)
	}
	s.mu.Unlock()
	if err != nil {
		s.writeError(w, "Run", err)
		return
	}

	var tick <-chan time.Time
	if s.pace > 0 {
		ticker := time.NewTicker(s.pace)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case res := <-done:
			s.writeRun(w, res)
			return
		default:
		}
		if tick != nil {
			select {
			case res := <-done:
				s.writeRun(w, res)
				return
			case <-tick:
			}
		}

		s.mu.Lock()
		if r.Context().Err() != nil || s.game.Step() == 0 {
			// The client left, or nothing is pending: the run cannot make progress.
			s.game.Stop()
		}
		s.mu.Unlock()
	}
}

func (s *Server) writeRun(w http.ResponseWriter, res domain.RunResult) {
	resp := RunResponse{RunResult: res}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// Stop handles POST /stop.
func (s *Server) Stop(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stopped := s.game.Stop()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, map[string]bool{"stopped": stopped})
}

// Reset handles POST /reset, moving the agent back to its start.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.game.Reset()
	agent := s.game.Agent()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, agent)
}

// GetAgent handles GET /agent.
func (s *Server) GetAgent(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	agent := s.game.Agent()
	s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, agent)
}

// GetTrace handles GET /trace.
func (s *Server) GetTrace(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.trace.Entries())
}

// ResetTrace handles DELETE /trace.
func (s *Server) ResetTrace(w http.ResponseWriter, r *http.Request) {
	s.trace.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// ListSaves handles GET /saves.
func (s *Server) ListSaves(w http.ResponseWriter, r *http.Request) {
	keys, err := s.saves.List(r.Context())
	if err != nil {
		s.writeError(w, "ListSaves", err)
		return
	}
	s.writeJSON(w, http.StatusOK, keys)
}

// SaveProgram handles PUT /saves/{key}.
func (s *Server) SaveProgram(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saves.Checkpoint(r.Context(), key, s.game); err != nil {
		s.writeError(w, "SaveProgram", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreSave handles POST /saves/{key}/restore.
func (s *Server) RestoreSave(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saves.Resume(r.Context(), key, s.game); err != nil {
		s.writeError(w, "RestoreSave", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ProgramsResponse{Snapshot: s.game.Snapshot(), Text: s.game.Stringify()})
}

// DeleteSave handles DELETE /saves/{key}.
func (s *Server) DeleteSave(w http.ResponseWriter, r *http.Request) {
	if err := s.saves.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		s.writeError(w, "DeleteSave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles GET /events (SSE). Each engine event is one data line.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE Client Disconnected")
			return
		case <-keepAlive.C:
			fmt.Fprintf(w, ": keep-alive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
