package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/mazecode"
	"github.com/aretw0/mazecode/internal/presentation/tui"
	"github.com/aretw0/mazecode/pkg/domain"
	"github.com/aretw0/mazecode/pkg/observability"
	"github.com/aretw0/mazecode/pkg/persistence/middleware"
	"github.com/aretw0/mazecode/pkg/session"
)

// RunSession loads a level, runs its main program once and reports the result.
func RunSession(opts RunOptions) error {
	logger, closer, err := CreateLogger(opts.Debug, opts.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	if !opts.JSON && !opts.Quiet {
		tui.PrintBanner()
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	var saves *session.Manager
	if opts.SaveSlot != "" {
		m, closeSaves, err := OpenSaves(sigCtx, opts.Store, logger, middleware.NewInstrumentationMiddleware(logger, nil))
		if err != nil {
			return err
		}
		defer closeSaves()
		saves = m
	}

	_, err = runLevel(sigCtx, opts, saves, logger, os.Stdout)
	if sigCtx.Err() != nil && err == nil {
		err = sigCtx.Err()
	}
	if isInterrupted(err) && sigCtx.Signal() != nil && !opts.JSON {
		printSystemMessage(os.Stdout, "Interrupted (%v).", sigCtx.Signal())
	}
	return handleExecutionError(err)
}

// runLevel drives one run of the level at opts.LevelPath, writing progress to w.
// With a save slot, programs are resumed from it first and checkpointed after the run.
func runLevel(ctx context.Context, opts RunOptions, saves *session.Manager, logger *slog.Logger, w io.Writer) (domain.RunResult, error) {
	sopts := []mazecode.Option{
		mazecode.WithLogger(logger),
		mazecode.WithLifecycleHooks(reportHooks(w, opts.JSON)),
		mazecode.WithLifecycleHooks(observability.LogHooks(logger)),
	}
	var rec *observability.Recorder
	if opts.Trace {
		rec = observability.NewRecorder(0)
		sopts = append(sopts, mazecode.WithLifecycleHooks(rec.Hooks()))
	}
	s, err := mazecode.LoadLevel(opts.LevelPath, sopts...)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("failed to load level: %w", err)
	}
	defer s.Close()

	if saves != nil {
		if opts.Fresh {
			if err := saves.Delete(ctx, opts.SaveSlot); err != nil {
				logger.Warn("Failed to clear save slot", "slot", opts.SaveSlot, "err", err)
			}
		}
		snap, err := saves.Load(ctx, opts.SaveSlot)
		switch {
		case err == nil:
			if err := s.Restore(snap); err != nil {
				return domain.RunResult{}, fmt.Errorf("failed to resume slot %q: %w", opts.SaveSlot, err)
			}
			if !opts.JSON {
				printSystemMessage(w, "Resumed programs from '%s'.", opts.SaveSlot)
			}
		case isNotFound(err):
			logger.Debug("Save slot empty, using level programs", "slot", opts.SaveSlot)
		default:
			return domain.RunResult{}, err
		}
	}

	if !opts.JSON {
		fmt.Fprintln(w, s.Stringify())
	}

	res, runErr := s.RunToCompletion(ctx)
	if res.Status == "" {
		return res, runErr
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		if rec != nil {
			if err := enc.Encode(traceRecord{Type: "trace", Entries: rec.Entries()}); err != nil {
				return res, err
			}
		}
		if err := enc.Encode(summary(res)); err != nil {
			return res, err
		}
	} else {
		fmt.Fprintln(w, tui.RenderBoard(s.Grid(), res.Agent))
		if rec != nil {
			printTrace(w, rec.Entries())
		}
		printSystemMessage(w, "Run %s after %d steps (%d blocked).", res.Status, len(res.Steps), res.Blocked())
	}

	if saves != nil {
		if err := saves.Checkpoint(ctx, opts.SaveSlot, s); err != nil {
			return res, err
		}
	}
	return res, runErr
}

type traceRecord struct {
	Type    string                `json:"type"`
	Entries []observability.Entry `json:"entries"`
}

// printTrace writes one line per entry, indented by branch depth.
func printTrace(w io.Writer, entries []observability.Entry) {
	fmt.Fprintln(w, "Trace:")
	for _, e := range entries {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", e.Depth+1), e)
	}
}

type runSummary struct {
	Type    string           `json:"type"`
	Status  domain.RunStatus `json:"status"`
	Steps   int              `json:"steps"`
	Blocked int              `json:"blocked"`
	Agent   domain.Agent     `json:"agent"`
	Error   string           `json:"error,omitempty"`
}

func summary(res domain.RunResult) runSummary {
	out := runSummary{
		Type:    "summary",
		Status:  res.Status,
		Steps:   len(res.Steps),
		Blocked: res.Blocked(),
		Agent:   res.Agent,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}
