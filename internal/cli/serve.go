package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/mazecode"
	httpAdapter "github.com/aretw0/mazecode/pkg/adapters/http"
	"github.com/aretw0/mazecode/pkg/adapters/mcp"
	"github.com/aretw0/mazecode/pkg/observability"
	"github.com/aretw0/mazecode/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// traceLimit bounds the events a served session keeps for /trace.
const traceLimit = 1000

// ServeOptions configures the HTTP and MCP servers.
type ServeOptions struct {
	RunOptions
	Port      int
	Transport string
	Pace      time.Duration
}

// newServedSession creates the session shared by a server together with the
// metrics registry and event stream wired to it.
func newServedSession(opts RunOptions, deps serveDeps) (*mazecode.Session, error) {
	sopts := []mazecode.Option{
		mazecode.WithLogger(deps.logger),
		mazecode.WithLifecycleHooks(observability.LogHooks(deps.logger)),
	}
	if deps.metrics != nil {
		sopts = append(sopts,
			mazecode.WithLifecycleHooks(deps.metrics.Hooks()),
			mazecode.WithEditHook(deps.metrics.ObserveEdit),
		)
	}
	if deps.streams != nil {
		sopts = append(sopts, mazecode.WithLifecycleHooks(deps.streams.Hooks()))
	}
	if deps.trace != nil {
		sopts = append(sopts, mazecode.WithLifecycleHooks(deps.trace.Hooks()))
	}

	s, err := mazecode.LoadLevel(opts.LevelPath, sopts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load level: %w", err)
	}
	if deps.metrics != nil {
		s.OnComplete(deps.metrics.ObserveRun)
	}
	return s, nil
}

// Serve exposes a level session over HTTP until interrupted.
func Serve(opts ServeOptions) error {
	logger, closer, err := CreateLogger(opts.Debug, opts.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps := serveDeps{
		logger:  logger,
		metrics: observability.NewMetrics(reg),
		streams: httpAdapter.NewStreamManager(logger),
		trace:   observability.NewRecorder(traceLimit),
	}

	s, err := newServedSession(opts.RunOptions, deps)
	if err != nil {
		return err
	}
	defer s.Close()

	saves, closeSaves, err := OpenSaves(sigCtx, opts.Store, logger,
		middleware.NewInstrumentationMiddleware(logger, middleware.NewStoreMetrics(reg)),
	)
	if err != nil {
		return err
	}
	defer closeSaves()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", opts.Port),
		Handler: httpAdapter.NewHandler(s,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithSaves(saves),
			httpAdapter.WithStreams(deps.streams),
			httpAdapter.WithMetrics(reg),
			httpAdapter.WithTrace(deps.trace),
			httpAdapter.WithPace(opts.Pace),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting mazecode server", "addr", srv.Addr, "level", opts.LevelPath)
		printSystemMessage(os.Stdout, "Serving '%s' on %s", s.Name, srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		logger.Info("Shutdown signal received", "signal", sigCtx.Signal())
		s.Stop()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "err", err)
			return srv.Close()
		}
		printSystemMessage(os.Stdout, "Server stopped gracefully")
		return nil
	}
}

// ServeMCP exposes a level session as an MCP server over stdio or SSE.
func ServeMCP(opts ServeOptions) error {
	// Stdout carries JSON-RPC on stdio: logs always go to Stderr or the log file.
	logger, closer, err := CreateLogger(opts.Debug, opts.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	s, err := newServedSession(opts.RunOptions, serveDeps{logger: logger})
	if err != nil {
		return err
	}
	defer s.Close()

	srv := mcp.NewServer(s, mcp.WithLogger(logger))
	switch opts.Transport {
	case "", "stdio":
		logger.Info("Starting mazecode MCP server (stdio)")
		return srv.ServeStdio()
	case "sse":
		sigCtx := NewSignalContext(context.Background())
		defer sigCtx.Cancel()
		return srv.ServeSSE(sigCtx, opts.Port)
	default:
		return fmt.Errorf("unknown transport %q (stdio, sse)", opts.Transport)
	}
}

type serveDeps struct {
	logger  *slog.Logger
	metrics *observability.Metrics
	streams *httpAdapter.StreamManager
	trace   *observability.Recorder
}
