package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/mazecode"
	"github.com/aretw0/mazecode/internal/presentation/tui"
	"github.com/aretw0/mazecode/pkg/level"
	"github.com/aretw0/mazecode/pkg/persistence/middleware"
	tea "github.com/charmbracelet/bubbletea"
)

// RunPlay opens the interactive board for a level. With a save slot the
// programs are resumed from it and saved again on exit.
func RunPlay(opts RunOptions) error {
	logger, closer, err := CreateLogger(opts.Debug, opts.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	lvl, err := level.Load(opts.LevelPath)
	if err != nil {
		return fmt.Errorf("failed to load level: %w", err)
	}
	s, err := mazecode.FromLevel(lvl, mazecode.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	var briefing string
	if lvl.Briefing != "" {
		briefing, err = tui.NewRenderer()(lvl.Briefing)
		if err != nil {
			briefing = lvl.Briefing
		}
	}

	if opts.SaveSlot != "" {
		saves, closeSaves, err := OpenSaves(sigCtx, opts.Store, logger, middleware.NewInstrumentationMiddleware(logger, nil))
		if err != nil {
			return err
		}
		defer closeSaves()
		if err := saves.Resume(sigCtx, opts.SaveSlot, s); err != nil && !isNotFound(err) {
			return err
		}
		defer func() {
			if err := saves.Checkpoint(context.Background(), opts.SaveSlot, s); err != nil {
				logger.Error("Failed to save programs", "slot", opts.SaveSlot, "err", err)
			}
		}()
	}

	model := tui.NewModel(sigCtx, s, s.Name, briefing)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(sigCtx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return handleExecutionError(err)
	}
	return nil
}
