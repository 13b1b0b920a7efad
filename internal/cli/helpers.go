package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/mazecode/internal/logging"
	"github.com/aretw0/mazecode/pkg/domain"
)

// DefaultLevelFile is the level loaded when a directory is given.
const DefaultLevelFile = "level.yaml"

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// CreateLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout output).
// With a log file, records are also appended there as JSON lines.
func CreateLogger(debug bool, logFile string) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	if logFile != "" {
		return logging.NewWithFile(level, logFile)
	}
	if debug {
		return logging.New(level), nopCloser{}, nil
	}
	return logging.NewNop(), nopCloser{}, nil
}

// printSystemMessage prints a standardized system message to w.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// reportHooks prints run progress to w, as text lines or as NDJSON events.
func reportHooks(w io.Writer, jsonMode bool) domain.LifecycleHooks {
	if jsonMode {
		enc := json.NewEncoder(w)
		emit := func(v any) { _ = enc.Encode(v) }
		return domain.LifecycleHooks{
			OnRunStart:     func(_ context.Context, e *domain.RunEvent) { emit(e) },
			OnMoveSettled:  func(_ context.Context, e *domain.MoveEvent) { emit(e) },
			OnBranchEnter:  func(_ context.Context, e *domain.BranchEvent) { emit(e) },
			OnBranchReturn: func(_ context.Context, e *domain.BranchEvent) { emit(e) },
			OnRunEnd:       func(_ context.Context, e *domain.RunEvent) { emit(e) },
		}
	}
	return domain.LifecycleHooks{
		OnMoveSettled: func(_ context.Context, e *domain.MoveEvent) {
			cond := ""
			if e.Condition != "" {
				cond = "[" + e.Condition + "]"
			}
			fmt.Fprintf(w, "%s%s %d:%s%s -> %s %s %s\n",
				indentFor(e.Depth), e.Program, e.Index, e.Kind, cond, e.Outcome, e.Agent.Position, e.Agent.Facing)
		},
		OnBranchEnter: func(_ context.Context, e *domain.BranchEvent) {
			fmt.Fprintf(w, "%s-> %s\n", indentFor(e.Depth-1), e.Callee)
		},
	}
}

func indentFor(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("  ", depth)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

func handleExecutionError(err error) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrSnapshotNotFound)
}
