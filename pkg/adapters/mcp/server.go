package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/mazecode"
	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/program"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const programsURI = "mazecode://programs"

// Game is the session surface exposed to MCP clients. *mazecode.Session implements it.
type Game interface {
	Snapshot() *domain.Snapshot
	Stringify() string
	AddInstruction(name domain.ProgramName, kind domain.Kind, index int) (*program.Instruction, error)
	AttachCondition(host domain.InstructionID, predicate string) (*program.Instruction, error)
	RemoveInstruction(id domain.InstructionID) error
	RunToCompletion(ctx context.Context) (domain.RunResult, error)
	Agent() domain.Agent
}

// ProgramsResponse is the structured result of the editing tools.
type ProgramsResponse struct {
	Text     string           `json:"text" jsonschema_description:"One line per program: name followed by index:kind tokens"`
	Snapshot *domain.Snapshot `json:"snapshot" jsonschema_description:"The three programs"`
	Created  uint64           `json:"created,omitempty" jsonschema_description:"Identity of the instruction created by the call"`
}

// RunResponse is the structured result of run_program.
type RunResponse struct {
	Status  domain.RunStatus `json:"status" jsonschema_description:"completed, stopped or failed"`
	Agent   domain.Agent     `json:"agent" jsonschema_description:"Final pose of the agent"`
	Steps   []domain.Step    `json:"steps" jsonschema_description:"Every settled move in execution order"`
	Blocked int              `json:"blocked" jsonschema_description:"Number of blocked moves"`
	Error   string           `json:"error,omitempty" jsonschema_description:"Why the run failed"`
}

// Server wraps a game and exposes it as an MCP server.
// Tool calls are serialized on the game.
type Server struct {
	game      Game
	mu        sync.Mutex
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server instance.
func NewServer(game Game, opts ...Option) *Server {
	s := &Server{
		game:      game,
		mcpServer: server.NewMCPServer("mazecode-mcp", strings.TrimSpace(mazecode.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE, until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func kindNames() []string {
	var names []string
	for _, k := range domain.Kinds {
		if !k.IsCondition() {
			names = append(names, k.String())
		}
	}
	return names
}

func programNames() []string {
	names := make([]string, len(domain.ProgramNames))
	for i, n := range domain.ProgramNames {
		names[i] = string(n)
	}
	return names
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("stringify_programs",
		mcp.WithDescription("List the three programs, one line each."),
		mcp.WithOutputSchema[ProgramsResponse](),
	), mcp.NewStructuredToolHandler(s.handleStringify))

	s.mcpServer.AddTool(mcp.NewTool("append_instruction",
		mcp.WithDescription("Insert an instruction into a program. Without index it is appended."),
		mcp.WithString("program", mcp.Required(), mcp.Enum(programNames()...), mcp.Description("Target program")),
		mcp.WithString("kind", mcp.Required(), mcp.Enum(kindNames()...), mcp.Description("Instruction kind")),
		mcp.WithNumber("index", mcp.Description("Position to insert at (optional)")),
		mcp.WithString("condition", mcp.Description("Condition predicate to attach, e.g. if_free (optional)")),
		mcp.WithOutputSchema[ProgramsResponse](),
	), mcp.NewStructuredToolHandler(s.handleAppend))

	s.mcpServer.AddTool(mcp.NewTool("remove_instruction",
		mcp.WithDescription("Remove an instruction, and its condition, from its program."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Instruction identity")),
		mcp.WithOutputSchema[ProgramsResponse](),
	), mcp.NewStructuredToolHandler(s.handleRemove))

	s.mcpServer.AddTool(mcp.NewTool("run_program",
		mcp.WithDescription("Run the main program from the starting pose and report every move."),
		mcp.WithOutputSchema[RunResponse](),
	), mcp.NewStructuredToolHandler(s.handleRun))
}

func (s *Server) respond(created domain.InstructionID) ProgramsResponse {
	return ProgramsResponse{Text: s.game.Stringify(), Snapshot: s.game.Snapshot(), Created: uint64(created)}
}

func (s *Server) handleStringify(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ProgramsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.respond(0), nil
}

func (s *Server) handleAppend(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ProgramsResponse, error) {
	rawProgram, _ := args["program"].(string)
	rawKind, _ := args["kind"].(string)
	name, err := domain.ParseProgramName(rawProgram)
	if err != nil {
		return ProgramsResponse{}, err
	}
	kind, err := domain.ParseKind(rawKind)
	if err != nil {
		return ProgramsResponse{}, err
	}
	index := -1
	if v, ok := args["index"].(float64); ok {
		index = int(v)
	}
	cond, _ := args["condition"].(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	instr, err := s.game.AddInstruction(name, kind, index)
	if err != nil {
		s.logger.Warn("MCP append_instruction rejected", "err", err)
		return ProgramsResponse{}, fmt.Errorf("append failed: %w", err)
	}
	if cond != "" {
		if _, err := s.game.AttachCondition(instr.ID, cond); err != nil {
			_ = s.game.RemoveInstruction(instr.ID)
			return ProgramsResponse{}, fmt.Errorf("attach failed: %w", err)
		}
	}
	return s.respond(instr.ID), nil
}

func (s *Server) handleRemove(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ProgramsResponse, error) {
	id, ok := args["id"].(float64)
	if !ok || id < 1 {
		return ProgramsResponse{}, errors.New("id must be a positive number")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.game.RemoveInstruction(domain.InstructionID(id)); err != nil {
		return ProgramsResponse{}, fmt.Errorf("remove failed: %w", err)
	}
	return s.respond(0), nil
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RunResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.game.RunToCompletion(ctx)
	if res.Status == "" {
		return RunResponse{}, fmt.Errorf("run failed: %w", err)
	}
	resp := RunResponse{Status: res.Status, Agent: res.Agent, Steps: res.Steps, Blocked: res.Blocked()}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(programsURI, "Current Programs",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.mu.Lock()
		snap := s.game.Snapshot()
		s.mu.Unlock()

		jsonBytes, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to encode programs: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      programsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
