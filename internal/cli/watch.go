package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/mazecode/internal/presentation/tui"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce lets editors finish writing before the level is reloaded.
const reloadDebounce = 100 * time.Millisecond

// RunWatch runs the level and reruns it every time the level file changes.
func RunWatch(opts RunOptions) error {
	logger, closer, err := CreateLogger(opts.Debug, opts.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()
	if !opts.Quiet {
		tui.PrintBanner()
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	changes, err := watchFile(sigCtx, opts.LevelPath, logger)
	if err != nil {
		return err
	}

	logger.Info("Starting Watcher", "path", opts.LevelPath)
	printSystemMessage(os.Stdout, "Watching '%s'.", opts.LevelPath)

	for {
		if _, err := runLevel(sigCtx, opts, nil, logger, os.Stdout); err != nil && !isInterrupted(err) {
			logger.Error("Run failed", "err", err)
			printSystemMessage(os.Stdout, "Error: %v", err)
		}
		printSystemMessage(os.Stdout, "Waiting for changes...")

		select {
		case <-sigCtx.Done():
			logger.Info("Stopping watcher (signal received)", "signal", sigCtx.Signal())
			return nil
		case name, ok := <-changes:
			if !ok {
				return nil
			}
			printSystemMessage(os.Stdout, "Change detected in '%s'.", filepath.Base(name))
		}
	}
}

// watchFile reports writes to path until ctx is done. The parent directory is
// watched so that editors replacing the file by rename are still noticed.
func watchFile(ctx context.Context, path string, logger *slog.Logger) (<-chan string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer w.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				pending = time.After(reloadDebounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error", "err", err)
			case <-pending:
				pending = nil
				select {
				case out <- abs:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
